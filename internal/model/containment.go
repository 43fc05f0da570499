package model

import "fmt"

// EdgeKind names one of the three "is held by" relations.
type EdgeKind string

// Edge kinds.
const (
	EdgeContainer EdgeKind = "container"
	EdgeVehicle   EdgeKind = "vehicle"
	EdgeLocation  EdgeKind = "location"
)

// ParseEdgeKind validates an edge kind.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch k := EdgeKind(s); k {
	case EdgeContainer, EdgeVehicle, EdgeLocation:
		return k, nil
	}
	return "", fmt.Errorf("unknown edge kind %q: %w", s, ErrInvalidArgument)
}

// Edge is a directed relation from an item to its immediate holder.
type Edge struct {
	Kind     EdgeKind `json:"kind" db:"kind"`
	ItemID   string   `json:"item_id" db:"item_id"`
	HolderID string   `json:"holder_id" db:"holder_id"`
}

// FullLocation is an item's container chain (innermost first) plus any
// vehicle or fixed location the item itself is assigned to.
type FullLocation struct {
	ContainerPath []string `json:"container_path"`
	Vehicle       *string  `json:"vehicle"`
	Location      *string  `json:"location"`
}

// Placement classifies where an item is.
type Placement string

// Placements.
const (
	PlacementContainer Placement = "CONTAINER"
	PlacementVehicle   Placement = "VEHICLE"
	PlacementLocation  Placement = "LOCATION"
	PlacementUnplaced  Placement = "UNPLACED"
)
