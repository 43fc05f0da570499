// Package containment resolves where an item physically is by walking its
// container chain and its vehicle and location edges.
package containment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/model"
)

// MaxDepth bounds the container chain walk. Chains longer than this are
// treated as cycles.
const MaxDepth = 64

func holderOf(ctx context.Context, q sqlx.QueryerContext, kind model.EdgeKind, itemID string) (string, bool, error) {
	var holder string
	err := sqlx.GetContext(ctx, q, &holder,
		`SELECT holder_id FROM containment_edges WHERE kind = ? AND item_id = ?`,
		kind, itemID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s of %q: %w", kind, itemID, err)
	}
	return holder, true, nil
}

func itemExists(ctx context.Context, q sqlx.QueryerContext, itemID string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		`SELECT COUNT(*) FROM items WHERE barcode_id = ?`, itemID,
	)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return count > 0, nil
}

// ImmediateParent returns the container directly holding itemID. The boolean
// is false if the item is not in a container.
func ImmediateParent(ctx context.Context, q sqlx.QueryerContext, itemID string) (string, bool, error) {
	return holderOf(ctx, q, model.EdgeContainer, itemID)
}

// ResolvePath returns the chain of containers holding itemID, innermost
// first. An item that is not in a container has an empty path.
func ResolvePath(ctx context.Context, q sqlx.QueryerContext, itemID string) ([]string, error) {
	path := []string{}
	visited := map[string]bool{itemID: true}

	current := itemID
	for {
		parent, ok, err := ImmediateParent(ctx, q, current)
		if err != nil {
			return nil, err
		}
		if !ok {
			return path, nil
		}
		if visited[parent] || len(path) >= MaxDepth {
			return nil, fmt.Errorf("resolving %q: %w", itemID, model.ErrCycleDetected)
		}
		visited[parent] = true
		path = append(path, parent)
		current = parent
	}
}

// ResolveFullLocation returns the container path of itemID together with the
// vehicle and location the item itself is assigned to. Edges on ancestors are
// not followed. The item must exist.
func ResolveFullLocation(ctx context.Context, q sqlx.QueryerContext, itemID string) (*model.FullLocation, error) {
	ok, err := itemExists(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("item %q: %w", itemID, model.ErrNotFound)
	}

	path, err := ResolvePath(ctx, q, itemID)
	if err != nil {
		return nil, err
	}

	loc := &model.FullLocation{ContainerPath: path}
	if vehicle, ok, err := holderOf(ctx, q, model.EdgeVehicle, itemID); err != nil {
		return nil, err
	} else if ok {
		loc.Vehicle = &vehicle
	}
	if location, ok, err := holderOf(ctx, q, model.EdgeLocation, itemID); err != nil {
		return nil, err
	} else if ok {
		loc.Location = &location
	}
	return loc, nil
}

// Classify reports the innermost placement of a resolved location: a
// container chain first, then a vehicle, then a fixed location.
func Classify(loc *model.FullLocation) model.Placement {
	switch {
	case loc == nil:
		return model.PlacementUnplaced
	case len(loc.ContainerPath) > 0:
		return model.PlacementContainer
	case loc.Vehicle != nil:
		return model.PlacementVehicle
	case loc.Location != nil:
		return model.PlacementLocation
	default:
		return model.PlacementUnplaced
	}
}

// WouldCycle reports whether adding an edge from itemID to holderID would
// close a loop in the holder graph. All edge kinds are followed.
func WouldCycle(ctx context.Context, q sqlx.QueryerContext, itemID, holderID string) (bool, error) {
	if itemID == holderID {
		return true, nil
	}

	visited := map[string]bool{holderID: true}
	frontier := []string{holderID}
	for len(frontier) > 0 {
		var next []string
		query, args, err := sqlx.In(
			`SELECT DISTINCT holder_id FROM containment_edges WHERE item_id IN (?)`, frontier,
		)
		if err != nil {
			return false, fmt.Errorf("building holder query: %w", err)
		}
		if err := sqlx.SelectContext(ctx, q, &next, query, args...); err != nil {
			return false, fmt.Errorf("walking holders of %q: %w", holderID, err)
		}

		frontier = frontier[:0]
		for _, id := range next {
			if id == itemID {
				return true, nil
			}
			if !visited[id] {
				visited[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	return false, nil
}
