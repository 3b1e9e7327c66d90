package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
	"github.com/hookfreight/hookfreight/store/memory"
)

func TestAppCRUDAndCascadeDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &app.App{Entity: entity.New(), ID: id.NewAppID(), Name: "acme"}
	if err := s.CreateApp(ctx, a); err != nil {
		t.Fatal(err)
	}

	ep := &endpoint.Endpoint{
		Entity:    entity.New(),
		ID:        id.NewEndpointID(),
		AppID:     a.ID,
		HookToken: "aaaaaaaaaaaaaaaaaaaaaaaa",
		IsActive:  true,
	}
	if err := s.CreateEndpoint(ctx, ep); err != nil {
		t.Fatal(err)
	}

	evt := event.Capture(event.CaptureInput{EndpointID: ep.ID, Method: "POST"})
	if err := s.Append(ctx, evt); err != nil {
		t.Fatal(err)
	}

	if err := s.CascadeDeleteApp(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetApp(ctx, a.ID); err == nil {
		t.Fatal("expected app to be gone after cascade delete")
	}
	if _, err := s.ByID(ctx, ep.ID); err == nil {
		t.Fatal("expected endpoint to be gone after cascade delete")
	}
	if _, err := s.Get(ctx, evt.ID); err == nil {
		t.Fatal("expected event to be gone after cascade delete")
	}
}

func TestEndpointDuplicateHookTokenRejected(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	appID := id.NewAppID()
	ep1 := &endpoint.Endpoint{Entity: entity.New(), ID: id.NewEndpointID(), AppID: appID, HookToken: "bbbbbbbbbbbbbbbbbbbbbbbb"}
	ep2 := &endpoint.Endpoint{Entity: entity.New(), ID: id.NewEndpointID(), AppID: appID, HookToken: "bbbbbbbbbbbbbbbbbbbbbbbb"}

	if err := s.CreateEndpoint(ctx, ep1); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEndpoint(ctx, ep2); err == nil {
		t.Fatal("expected duplicate hook token to be rejected")
	}
}

func TestEventListingOrderAndPagination(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	epID := id.NewEndpointID()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		evt := event.Capture(event.CaptureInput{EndpointID: epID, Method: "POST"})
		evt.ReceivedAt = base // identical timestamps force the Seq tiebreak
		if err := s.Append(ctx, evt); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.ListByEndpoint(ctx, epID, event.ListOpts{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(page.Events))
	}
	if !page.HasNext {
		t.Fatal("expected HasNext = true")
	}
	if page.Events[0].Seq <= page.Events[1].Seq {
		t.Fatal("events sharing a timestamp must be ordered by descending Seq")
	}
}

func TestDeliveryUniquenessPerEventAndParent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	evtID := id.NewEventID()
	epID := id.NewEndpointID()

	d1 := &delivery.Delivery{Entity: entity.New(), ID: id.NewDeliveryID(), EventID: evtID, EndpointID: epID, Status: delivery.StatusFailed}
	if err := s.AppendDelivery(ctx, d1); err != nil {
		t.Fatal(err)
	}

	d2 := &delivery.Delivery{Entity: entity.New(), ID: id.NewDeliveryID(), EventID: evtID, EndpointID: epID, Status: delivery.StatusFailed}
	if err := s.AppendDelivery(ctx, d2); err == nil {
		t.Fatal("expected second delivery with the same (event_id, parent_delivery_id=nil) to be rejected")
	}

	parent := d1.ID
	d3 := &delivery.Delivery{Entity: entity.New(), ID: id.NewDeliveryID(), EventID: evtID, EndpointID: epID, ParentDeliveryID: &parent, Status: delivery.StatusDelivered}
	if err := s.AppendDelivery(ctx, d3); err != nil {
		t.Fatalf("delivery with a distinct parent should be accepted: %v", err)
	}
}

func TestListDeliveriesByEventOrdering(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	evtID := id.NewEventID()
	epID := id.NewEndpointID()

	var first *delivery.Delivery
	for i := 0; i < 3; i++ {
		d := &delivery.Delivery{Entity: entity.New(), ID: id.NewDeliveryID(), EventID: evtID, EndpointID: epID, Status: delivery.StatusFailed}
		if first != nil {
			d.ParentDeliveryID = &first.ID
		}
		if err := s.AppendDelivery(ctx, d); err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = d
		} else {
			first = d
		}
		time.Sleep(time.Millisecond)
	}

	page, err := s.ListDeliveriesByEvent(ctx, evtID, delivery.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Deliveries) != 3 {
		t.Fatalf("len(Deliveries) = %d, want 3", len(page.Deliveries))
	}
	for i := 1; i < len(page.Deliveries); i++ {
		if page.Deliveries[i-1].CreatedAt.Before(page.Deliveries[i].CreatedAt) {
			t.Fatal("deliveries must be ordered by created_at descending")
		}
	}
}
