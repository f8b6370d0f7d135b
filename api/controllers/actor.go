package controllers

import (
	"net/http"

	"github.com/smartpos/smartpos-backend/api/middleware"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

var errActorMissing = pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")

func requestActor(r *http.Request) (visibility.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return visibility.Actor{}, errActorMissing
	}
	return actor, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
