package controllers

import (
	"context"

	"github.com/goliatone/go-content-controllers/content"
)

// Invalidator receives mutation notifications from the host and evicts the
// affected controllers. Every hook is idempotent: repeated or out of order
// notifications only cost extra cache deletes.
type Invalidator struct {
	svc *Service
}

// OnPostInserted handles a saved post. isUpdate is true when the post
// existed before.
func (i *Invalidator) OnPostInserted(ctx context.Context, rec *content.PostRecord, isUpdate bool) error {
	kind := content.EventInsert
	if isUpdate {
		kind = content.EventUpdate
	}
	return i.post(ctx, kind, rec)
}

// OnPostUpdated handles an edited post.
func (i *Invalidator) OnPostUpdated(ctx context.Context, rec *content.PostRecord) error {
	return i.post(ctx, content.EventUpdate, rec)
}

// OnPostDeleted handles a removed post.
func (i *Invalidator) OnPostDeleted(ctx context.Context, rec *content.PostRecord) error {
	return i.post(ctx, content.EventDelete, rec)
}

// OnTermInserted handles a created term.
func (i *Invalidator) OnTermInserted(ctx context.Context, rec *content.TermRecord) error {
	return i.term(ctx, content.EventInsert, rec)
}

// OnTermUpdated handles an edited term.
func (i *Invalidator) OnTermUpdated(ctx context.Context, rec *content.TermRecord) error {
	return i.term(ctx, content.EventUpdate, rec)
}

// OnTermDeleted handles a removed term.
func (i *Invalidator) OnTermDeleted(ctx context.Context, rec *content.TermRecord) error {
	return i.term(ctx, content.EventDelete, rec)
}

// OnUserInserted handles a registered user.
func (i *Invalidator) OnUserInserted(ctx context.Context, rec *content.UserRecord) error {
	return i.user(ctx, content.EventInsert, rec)
}

// OnUserUpdated handles an edited user.
func (i *Invalidator) OnUserUpdated(ctx context.Context, rec *content.UserRecord) error {
	return i.user(ctx, content.EventUpdate, rec)
}

// OnUserDeleted handles a removed user.
func (i *Invalidator) OnUserDeleted(ctx context.Context, rec *content.UserRecord) error {
	return i.user(ctx, content.EventDelete, rec)
}

// Handle dispatches an event whose record is already known.
func (i *Invalidator) Handle(ctx context.Context, ev content.Event, rec any) error {
	switch r := rec.(type) {
	case *content.PostRecord:
		return i.post(ctx, ev.Kind, r)
	case *content.TermRecord:
		return i.term(ctx, ev.Kind, r)
	case *content.UserRecord:
		return i.user(ctx, ev.Kind, r)
	}
	return invalidKeyType(rec)
}

func (i *Invalidator) post(ctx context.Context, kind content.EventKind, rec *content.PostRecord) error {
	if rec == nil {
		return nil
	}
	i.log(ctx, content.NewEvent(kind, content.ObjectPost, rec.ID))
	if err := i.svc.posts.Invalidate(ctx, rec); err != nil {
		i.svc.logError(ctx, err, "post invalidation failed", "id", rec.ID)
		return err
	}
	return nil
}

func (i *Invalidator) term(ctx context.Context, kind content.EventKind, rec *content.TermRecord) error {
	if rec == nil {
		return nil
	}
	i.log(ctx, content.NewEvent(kind, content.ObjectTerm, rec.ID))
	if err := i.svc.terms.Invalidate(ctx, rec); err != nil {
		i.svc.logError(ctx, err, "term invalidation failed", "id", rec.ID)
		return err
	}
	return nil
}

func (i *Invalidator) user(ctx context.Context, kind content.EventKind, rec *content.UserRecord) error {
	if rec == nil {
		return nil
	}
	i.log(ctx, content.NewEvent(kind, content.ObjectUser, rec.ID))
	if err := i.svc.users.Invalidate(ctx, rec); err != nil {
		i.svc.logError(ctx, err, "user invalidation failed", "id", rec.ID)
		return err
	}
	return nil
}

func (i *Invalidator) log(ctx context.Context, ev content.Event) {
	i.svc.logger.DebugContext(ctx, "invalidating controller",
		"event_id", ev.ID.String(),
		"kind", string(ev.Kind),
		"object_type", ev.ObjectType,
		"object_id", ev.ObjectID,
	)
}
