package store

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CheckBoundaries enforces the database layout invariant: collections
// named PDC_* exist only in crucible; locations exists only in registry;
// processedclaims and jobs exist only in activity. A violation is a
// health-check failure, not a runtime error.
func (a *Adapter) CheckBoundaries(ctx context.Context) error {
	activityColls, err := a.Activity().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("listing collections in activity: %w", err)
	}
	registryColls, err := a.Registry().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("listing collections in registry: %w", err)
	}
	crucibleColls, err := a.Crucible().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("listing collections in crucible: %w", err)
	}

	var violations []string

	for _, c := range activityColls {
		if strings.HasPrefix(c, "PDC_") {
			violations = append(violations, fmt.Sprintf("activity.%s: PDC_* collections must live in crucible", c))
		}
		if c == "locations" {
			violations = append(violations, "activity.locations: locations must live in registry")
		}
	}
	for _, c := range registryColls {
		if strings.HasPrefix(c, "PDC_") {
			violations = append(violations, fmt.Sprintf("registry.%s: PDC_* collections must live in crucible", c))
		}
		if c == "processedclaims" || c == "jobs" {
			violations = append(violations, fmt.Sprintf("registry.%s: must live in activity", c))
		}
	}
	for _, c := range crucibleColls {
		if c == "locations" {
			violations = append(violations, "crucible.locations: locations must live in registry")
		}
		if c == "processedclaims" || c == "jobs" {
			violations = append(violations, fmt.Sprintf("crucible.%s: must live in activity", c))
		}
	}

	if len(violations) > 0 {
		return fmt.Errorf("database boundary violations: %s", strings.Join(violations, "; "))
	}
	return nil
}
