package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/agrisoko/farmhub-backend/pkg/enums"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

func TestRepositoryListByFarmerPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	farmerID := uuid.New()

	for i := 0; i < 5; i++ {
		lot := seedLot(t, db, "LOT-"+uuid.NewString()[:8], "10.000")
		if err := db.Model(&lot).Update("farmer_id", farmerID).Error; err != nil {
			t.Fatalf("assign farmer: %v", err)
		}
	}

	first, cursor, err := repo.ListByFarmer(ctx, farmerID, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 lots, got %d", len(first))
	}
	if cursor == "" {
		t.Fatalf("expected next cursor")
	}

	second, next, err := repo.ListByFarmer(ctx, farmerID, pagination.Params{Limit: 3, Cursor: cursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 lots on second page, got %d", len(second))
	}
	if next != "" {
		t.Fatalf("expected no further cursor, got %q", next)
	}

	seen := map[uuid.UUID]bool{}
	for _, lot := range append(first, second...) {
		if seen[lot.ID] {
			t.Fatalf("lot %s appears on both pages", lot.ID)
		}
		seen[lot.ID] = true
	}
}

func TestRepositoryListByHubFiltersStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	hubID := uuid.New()

	available := seedLot(t, db, "LOT-AV", "10.000")
	sold := seedLot(t, db, "LOT-SO", "0.000")
	for _, id := range []uuid.UUID{available.ID, sold.ID} {
		if err := db.Exec("UPDATE lots SET hub_id = ? WHERE id = ?", hubID, id).Error; err != nil {
			t.Fatalf("assign hub: %v", err)
		}
	}
	if err := repo.UpdateStatus(ctx, sold.ID, enums.LotStatusSold); err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	status := enums.LotStatusAvailable
	lots, _, err := repo.ListByHub(ctx, hubID, &status, pagination.Params{})
	if err != nil {
		t.Fatalf("list by hub: %v", err)
	}
	if len(lots) != 1 || lots[0].ID != available.ID {
		t.Fatalf("expected only the available lot, got %d rows", len(lots))
	}
}

func TestRepositoryFindByIDs(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lotA := seedLot(t, db, "LOT-A", "10.000")
	lotB := seedLot(t, db, "LOT-B", "5.000")

	lots, err := repo.FindByIDs(ctx, []uuid.UUID{lotA.ID, lotB.ID})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("expected 2 lots, got %d", len(lots))
	}

	none, err := repo.FindByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("find by empty ids: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil result for empty input")
	}
}
