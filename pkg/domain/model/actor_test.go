package model_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	gt.S(t, model.ActorFromContext(ctx)).Equal(model.AnonymousActor)

	ctx = model.WithActor(ctx, "auditor@example.com")
	gt.S(t, model.ActorFromContext(ctx)).Equal("auditor@example.com")

	// An empty actor falls back to anonymous
	gt.S(t, model.ActorFromContext(model.WithActor(context.Background(), ""))).Equal(model.AnonymousActor)
}
