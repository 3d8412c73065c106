package handlers

import (
	"context"
	"fmt"
	"net/http"

	"canvas-ai/application/commands/bus"
	"canvas-ai/application/queries"
	querybus "canvas-ai/application/queries/bus"
	"canvas-ai/pkg/common"
	pkgerrors "canvas-ai/pkg/errors"
	"canvas-ai/pkg/utils"

	"go.uber.org/zap"
)

// base carries what every handler needs
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func newBase(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	return base{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// decode parses and validates a JSON body
func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(w, r, v, common.DefaultMaxBodyBytes); err != nil {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := utils.ValidateStruct(v); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

func (b base) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	common.RespondWithMeta(w, status, data, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Version:   "v1",
	})
}

func (b base) respondError(w http.ResponseWriter, r *http.Request, err error) {
	b.errors.Handle(w, r, err)
}

// graph reads the current graph read model
func (b base) graph(ctx context.Context) (*queries.GetGraphResult, error) {
	return ask[*queries.GetGraphResult](ctx, b.queryBus, queries.GetGraphQuery{})
}

// send dispatches a command and returns its typed result
func send[R any](ctx context.Context, b *bus.CommandBus, cmd bus.Command) (R, error) {
	var zero R
	result, err := b.Send(ctx, cmd)
	if err != nil {
		return zero, err
	}
	data, ok := result.Data.(R)
	if !ok {
		return zero, pkgerrors.NewInternalError(fmt.Sprintf("unexpected result %T for %T", result.Data, cmd))
	}
	return data, nil
}

// ask dispatches a query and returns its typed result
func ask[R any](ctx context.Context, b *querybus.QueryBus, q querybus.Query) (R, error) {
	var zero R
	result, err := b.Ask(ctx, q)
	if err != nil {
		return zero, err
	}
	data, ok := result.(R)
	if !ok {
		return zero, pkgerrors.NewInternalError(fmt.Sprintf("unexpected result %T for %T", result, q))
	}
	return data, nil
}
