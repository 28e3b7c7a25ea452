package http

import (
	"context"

	"famfin/internal/core"
	"famfin/internal/services"
)

func recurringInput(p *RequestBodyParser) services.RecurringInput {
	return services.RecurringInput{
		AccountID:  p.Get("accountId"),
		CategoryID: p.Get("categoryId"),
		Name:       p.Get("name"),
		Amount:     p.Get("amount"),
		Type:       p.Get("type"),
		Frequency:  p.Get("frequency"),
		Interval:   p.Get("interval"),
		StartDate:  p.Get("startDate"),
		EndDate:    p.Get("endDate"),
	}
}

func (s *Server) handleCreateRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	rt, err := s.services.Recurring.CreateRecurring(ctx, caller, recurringInput(p))
	if err != nil {
		return fail(err)
	}
	return OK().With("recurringTransaction", rt)
}

func (s *Server) handleGetRecurringList(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	rules, err := s.services.Recurring.ListRecurring(ctx, caller, p.Bool("deleted"))
	if err != nil {
		return fail(err)
	}
	return OK().With("recurringTransactions", rules)
}

func (s *Server) handleGetRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	rt, err := s.services.Recurring.GetRecurring(ctx, caller, id)
	if err != nil {
		return fail(err)
	}
	return OK().With("recurringTransaction", rt)
}

func (s *Server) handleUpdateRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	rt, err := s.services.Recurring.UpdateRecurring(ctx, caller, id, recurringInput(p))
	if err != nil {
		return fail(err)
	}
	return OK().With("recurringTransaction", rt)
}

func (s *Server) handleDeleteRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	if err := s.services.Recurring.DeleteRecurring(ctx, caller, id); err != nil {
		return fail(err)
	}
	return OK()
}

func (s *Server) handleRestoreRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	rt, err := s.services.Recurring.RestoreRecurring(ctx, caller, id)
	if err != nil {
		return fail(err)
	}
	return OK().With("recurringTransaction", rt)
}

func (s *Server) handlePurgeRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	if err := s.services.Recurring.PurgeRecurring(ctx, caller, id); err != nil {
		return fail(err)
	}
	return OK()
}

func (s *Server) handleBulkRestoreRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	result, err := s.services.Recurring.BulkRestore(ctx, caller, p.Get("ids"))
	if err != nil {
		return fail(err)
	}
	return OK().With("restored", result.Affected).With("skipped", result.Skipped)
}

func (s *Server) handleBulkPurgeRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	result, err := s.services.Recurring.BulkPurge(ctx, caller, p.Get("ids"))
	if err != nil {
		return fail(err)
	}
	return OK().With("purged", result.Affected).With("skipped", result.Skipped)
}

func (s *Server) handleGenerateRecurring(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	asOf, err := p.Date("asOf")
	if err != nil {
		return fail(err)
	}
	result, err := s.services.Recurring.Generate(ctx, caller, asOf)
	if err != nil {
		return fail(err)
	}
	return OK().
		With("rules", result.Rules).
		With("failed", result.Failed).
		With("created", result.Created)
}
