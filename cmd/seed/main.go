// seed crea un usuario inicial (por defecto admin) para poder iniciar sesión.
//
// Uso: go run ./cmd/seed -email admin@clinica.local -password 'cambiar123' -name Admin -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/clinica-stock-api/internal/application/auth"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/clinica-stock-api/pkg/config"
	"github.com/jhoicas/clinica-stock-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "email del usuario")
	password := flag.String("password", "", "contraseña (mínimo 8 caracteres)")
	name := flag.String("name", "Administrador", "nombre visible")
	role := flag.String("role", "admin", "admin | doctor | staff | reception")
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "email y password (>= 8 caracteres) son requeridos")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{App: cfg.App.Name, Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	user, err := uc.RegisterUser(ctx, auth.RegisterInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     *role,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		log.Warn().Str("email", *email).Msg("el usuario ya existe")
		return
	case err != nil:
		log.Fatal().Err(err).Msg("crear usuario")
	}
	log.Info().Str("id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("usuario creado")
}
