package main

import (
	"database/sql"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"

	"inkwell/auth"
	"inkwell/handler"
	"inkwell/store"
)

const DEV_ENV = "dev"
const PRO_ENV = "pro"

func main() {
	godotenv.Load()

	env := os.Getenv("ENV")
	if env == "" {
		env = PRO_ENV
	}
	log := newLogger(env)

	log.Info().Msg("running database schema migrations")
	db, err := setupDB()
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}

	jwtSecret, err := fetchSecret(env)
	if err != nil {
		log.Fatal().Err(err).Msg("no JWT secret")
	}

	accounts := store.NewAccountStore(db)
	posts := store.NewPostStore(db)
	h := &handler.Handler{
		Accounts:     accounts,
		Posts:        posts,
		Auth:         auth.NewService(accounts, jwtSecret),
		Log:          log,
		EnableSignup: env == DEV_ENV || os.Getenv("ENABLE_SIGNUP") == "true",
	}

	e := handler.NewRouter(h, jwtSecret, "templates")

	addr := os.Getenv("ADDRESS_LISTEN")
	if env == DEV_ENV && addr == "" {
		addr = ":8080"
	}

	if addr != "" {
		e.Logger.Fatal(e.Start(addr))
	} else {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		e.AutoTLSManager.Cache = autocert.DirCache("/var/www/.cache")
		if onlyHost := os.Getenv("WHITELIST_HOST"); onlyHost != "" {
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(onlyHost)
		}
		e.Pre(middleware.HTTPSRedirect())
		e.Logger.Fatal(e.StartAutoTLS(":443"))
	}
}

func newLogger(env string) zerolog.Logger {
	if env == DEV_ENV {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func fetchSecret(env string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" && env == DEV_ENV {
		secret = "unsecure"
	}
	if secret == "" {
		return "", errors.New("no secret defined")
	}
	return secret, nil
}

func setupDB() (*sql.DB, error) {
	dataSourceName := os.Getenv("DB_URL")
	if dataSourceName == "" {
		dataSourceName = "./inkwell.db?_pragma=foreign_keys(1)"
	}

	db, err := store.Open(dataSourceName)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db, "file://db/migrations"); err != nil {
		return nil, err
	}
	return db, nil
}
