package applicationservice

import (
	"log/slog"

	httpadapter "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/adapters/http"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/adapters/memory"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/application"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Policy     ports.AccessPolicy
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Policy: deps.Policy,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(policy ports.AccessPolicy, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		IDGen:      store,
		Policy:     policy,
		Logger:     logger,
	})
	module.Store = store
	return module
}
