// README: Concurrency tests for booking transitions (run with -race).
package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"fixnow/internal/types"
)

func TestConcurrentAcceptSameBooking(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	b, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 16
	start := make(chan struct{})
	results := make(chan error, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.Accept(ctx, AcceptCommand{
				BookingID:    b.ID,
				TechnicianID: types.ID(fmt.Sprintf("t%d", i)),
			})
			results <- err
		}(i)
	}
	close(start)
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins = %d, conflicts = %d, want 1 and %d", wins, conflicts, n-1)
	}

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusAccepted || got.TechnicianID == nil {
		t.Fatalf("final state: status=%s tech=%v", got.Status, got.TechnicianID)
	}
}

func TestConcurrentAcceptVsCancel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	b, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, err := svc.Accept(ctx, AcceptCommand{BookingID: b.ID, TechnicianID: "t1"})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		<-start
		client := types.ID("c1")
		_, err := svc.Cancel(ctx, CancelCommand{BookingID: b.ID, ActorID: &client, Reason: "race"})
		errs <- err
	}()
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Cancel after accept is legal, so cancelled can follow an accept win; an
	// accept can never follow a cancel.
	if got.Status != StatusAccepted && got.Status != StatusCancelled {
		t.Fatalf("final status = %s", got.Status)
	}
}
