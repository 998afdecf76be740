package models

import (
	"strconv"
	"time"
)

// Placement actions
const (
	ActionPlaced   = "placed"
	ActionUpdated  = "updated"
	ActionReleased = "released"
)

// Domain types

// Identity is the (session, ip) pair that owns cells and consumes quota.
type Identity struct {
	SessionID string `json:"session_id"`
	IP        string `json:"ip"`
}

// Owns reports whether the cell belongs to id.
func (id Identity) Owns(c Cell) bool {
	return c.SessionID == id.SessionID && c.IP == id.IP
}

type Cell struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Color     string    `json:"color"`
	SessionID string    `json:"-"` // Never expose in JSON
	IP        string    `json:"-"` // Never expose in JSON
	CreatedAt time.Time `json:"created_at"`
	Locked    bool      `json:"locked"`
}

// Key returns the "x,y" key used by the grid response.
func (c Cell) Key() string {
	return CellKey(c.X, c.Y)
}

func CellKey(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

type Session struct {
	SessionID    string    `json:"session_id"`
	IP           string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

type GridStats struct {
	Total  int `json:"total"`
	Locked int `json:"locked"`
}

// Request types

type PlacePixelRequest struct {
	X     *int   `json:"x"`
	Y     *int   `json:"y"`
	Color string `json:"color"`
}

type ReleasePixelRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// Response types

type PlaceResult struct {
	Action        string `json:"action"`
	SessionLocked bool   `json:"sessionLocked"`
}

type ReleaseResult struct {
	Action string `json:"action"`
}

type GridCell struct {
	Color  string `json:"color"`
	Locked bool   `json:"locked"`
}

// "x,y" -> cell
type GridResponse map[string]GridCell

type MineResponse struct {
	MyPixels  []Cell `json:"myPixels"`
	Remaining int    `json:"remaining"`
	MaxPerDay int    `json:"maxPerDay"`
}

type LockSessionResponse struct {
	Success bool  `json:"success"`
	Locked  int64 `json:"locked"`
}

type ConfigResponse struct {
	GridSize        int    `json:"gridSize"`
	MaxPerDay       int    `json:"maxPerDay"`
	AdjacencyPolicy string `json:"adjacencyPolicy"`
	SessionSeconds  int64  `json:"sessionSeconds"`
}

type ActivityEntry struct {
	At     time.Time `json:"at"`
	Ago    string    `json:"ago"`
	IPHash string    `json:"ip_hash"`
	Method string    `json:"method"`
	Path   string    `json:"path"`
}

type StatsResponse struct {
	Cells          GridStats       `json:"cells"`
	RecentActivity []ActivityEntry `json:"recent_activity"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
