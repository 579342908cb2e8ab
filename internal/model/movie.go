package model

// Movie is a catalog entry.  The engine only reads movies for browse
// endpoints; catalog management lives outside this service.
type Movie struct {
    ID    uint64 `json:"id"`
    Title string `json:"title"`
}
