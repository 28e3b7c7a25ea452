package http

import (
	"context"

	"famfin/internal/core"
	"famfin/internal/services"
)

func (s *Server) handleCreateAccount(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	acc, err := s.services.Accounts.CreateAccount(ctx, caller, services.CreateAccountInput{
		Name:           p.Get("name"),
		OpeningBalance: p.Get("openingBalance"),
	})
	if err != nil {
		return fail(err)
	}
	return OK().With("account", acc)
}

func (s *Server) handleGetAccounts(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	accounts, err := s.services.Accounts.ListAccounts(ctx, caller, p.Bool("deleted"))
	if err != nil {
		return fail(err)
	}
	return OK().With("accounts", accounts)
}

func (s *Server) handleGetAccount(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	acc, err := s.services.Accounts.GetAccount(ctx, caller, id)
	if err != nil {
		return fail(err)
	}
	return OK().With("account", acc)
}

func (s *Server) handleGetAccountBalanceHistory(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	from, err := p.Date("from")
	if err != nil {
		return fail(err)
	}
	to, err := p.Date("to")
	if err != nil {
		return fail(err)
	}
	history, err := s.services.Accounts.GetBalanceHistory(ctx, caller, id, from, to)
	if err != nil {
		return fail(err)
	}
	return OK().With("history", history)
}

func (s *Server) handleUpdateAccount(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	acc, err := s.services.Accounts.UpdateAccount(ctx, caller, id, p.Get("name"))
	if err != nil {
		return fail(err)
	}
	return OK().With("account", acc)
}

func (s *Server) handleDeleteAccount(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	if err := s.services.Accounts.DeleteAccount(ctx, caller, id); err != nil {
		return fail(err)
	}
	return OK()
}

func (s *Server) handleRestoreAccount(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	acc, err := s.services.Accounts.RestoreAccount(ctx, caller, id)
	if err != nil {
		return fail(err)
	}
	return OK().With("account", acc)
}

func (s *Server) handleUpdateDailyBalance(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	if err := s.services.Accounts.UpdateDailyBalance(ctx, caller, id); err != nil {
		return fail(err)
	}
	return OK()
}

func (s *Server) handleRecalculateAccountBalance(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	result, err := s.services.Accounts.RecalculateBalance(ctx, caller, id)
	if err != nil {
		return fail(err)
	}
	return OK().
		With("previous", result.Previous).
		With("current", result.Current).
		With("changed", result.Changed())
}
