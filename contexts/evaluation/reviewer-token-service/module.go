package reviewertokenservice

import (
	"log/slog"

	httpadapter "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/adapters/http"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/adapters/memory"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/application"
	"github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Secrets    ports.SecretGenerator
	Policy     ports.AccessPolicy
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:    deps.Repository,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Secrets: deps.Secrets,
		Policy:  deps.Policy,
		Logger:  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seedUsers []ports.UserProfile, policy ports.AccessPolicy, logger *slog.Logger) Module {
	store := memory.NewStore(seedUsers)
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		IDGen:      store,
		Secrets:    store,
		Policy:     policy,
		Logger:     logger,
	})
	module.Store = store
	return module
}
