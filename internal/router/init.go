package router

import (
	"github.com/oksasatya/profile-hub/internal/application"
	"github.com/oksasatya/profile-hub/internal/container"
	repouser "github.com/oksasatya/profile-hub/internal/domain/repository"
	pginfra "github.com/oksasatya/profile-hub/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/profile-hub/internal/interface/http"
	"github.com/oksasatya/profile-hub/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *application.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := application.NewService(
		repo,
		container.GetCache(),
		container.GetLogger(),
		container.GetGCS(),
		cfg.GCSBucket,
		cfg.CacheListTTL,
		cfg.CacheSearchTTL,
	)

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		cfg.DefaultPageSize,
		cfg.MaxPageSize,
	)

	return UserModuleDeps{Repo: repo, Service: service, Handler: handler}
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup after the container is filled.
func InitModules(r *Registry) {
	userDeps := buildUserDeps()
	r.Add(modules.NewUserModule(userDeps.Handler))
	r.Add(modules.NewDebugModule())
}
