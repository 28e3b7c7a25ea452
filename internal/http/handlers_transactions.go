package http

import (
	"context"

	"famfin/internal/core"
	"famfin/internal/services"
)

func transactionInput(p *RequestBodyParser) services.TransactionInput {
	return services.TransactionInput{
		AccountID:  p.Get("accountId"),
		CategoryID: p.Get("categoryId"),
		Date:       p.Get("date"),
		Name:       p.Get("name"),
		Amount:     p.Get("amount"),
		Type:       p.Get("type"),
		Tags:       p.Get("tags"),
	}
}

func (s *Server) handleCreateTransaction(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	tx, err := s.services.Transactions.CreateTransaction(ctx, caller, transactionInput(p))
	if err != nil {
		return fail(err)
	}
	return OK().With("transaction", tx)
}

func (s *Server) handleGetTransactions(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	var f services.TransactionFilter
	var err error
	if p.Get("accountId") != "" {
		if f.AccountID, err = p.ID("accountId"); err != nil {
			return fail(err)
		}
	}
	if f.From, err = p.Date("from"); err != nil {
		return fail(err)
	}
	if f.To, err = p.Date("to"); err != nil {
		return fail(err)
	}
	if f.Limit, err = p.Int("limit"); err != nil {
		return fail(err)
	}
	txs, err := s.services.Transactions.ListTransactions(ctx, caller, f)
	if err != nil {
		return fail(err)
	}
	return OK().With("transactions", txs)
}

func (s *Server) handleGetTransaction(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	tx, err := s.services.Transactions.GetTransaction(ctx, caller, id)
	if err != nil {
		return fail(err)
	}
	return OK().With("transaction", tx)
}

func (s *Server) handleUpdateTransaction(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	tx, err := s.services.Transactions.UpdateTransaction(ctx, caller, id, transactionInput(p))
	if err != nil {
		return fail(err)
	}
	return OK().With("transaction", tx)
}

func (s *Server) handleDeleteTransaction(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	id, err := p.ID("id")
	if err != nil {
		return fail(err)
	}
	if err := s.services.Transactions.DeleteTransaction(ctx, caller, id); err != nil {
		return fail(err)
	}
	return OK()
}

func (s *Server) handleGetCategories(ctx context.Context, caller core.Caller, _ *RequestBodyParser) *ActionResponse {
	categories, err := s.services.Transactions.ListCategories(ctx, caller)
	if err != nil {
		return fail(err)
	}
	return OK().With("categories", categories)
}

func (s *Server) handleCreateCategory(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse {
	category, err := s.services.Transactions.CreateCategory(ctx, caller, p.Get("name"))
	if err != nil {
		return fail(err)
	}
	return OK().With("category", category)
}

func (s *Server) handleGetTags(ctx context.Context, caller core.Caller, _ *RequestBodyParser) *ActionResponse {
	tags, err := s.services.Transactions.ListTags(ctx, caller)
	if err != nil {
		return fail(err)
	}
	return OK().With("tags", tags)
}
