package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/indexer"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

// ReindexResult reports an offline rebuild.
type ReindexResult struct {
	Head      int64
	Documents int
	Path      string
}

// Reindex rebuilds the search index from the store and writes it as a snapshot. It
// leaves every consumer cursor alone; a server restoring the snapshot rewinds its own
// cursor to Head and replays the tail.
func Reindex(ctx context.Context, log *logger.Logger, cfg Config) (ReindexResult, error) {
	path := strings.TrimSpace(cfg.Indexer.SnapshotPath)
	if path == "" {
		return ReindexResult{}, fmt.Errorf("SEARCH_SNAPSHOT_PATH is required for reindex")
	}
	theDB, closeDB, err := OpenDatabase(log, cfg)
	if err != nil {
		return ReindexResult{}, err
	}
	defer closeDB()

	set := repos.NewSet(theDB, log)
	index := search.NewMemoryIndex(log)
	ix := indexer.New(indexer.Deps{Log: log, Repos: set, Index: index}, cfg.Indexer)
	head, err := ix.Reindex(ctx)
	if err != nil {
		return ReindexResult{}, fmt.Errorf("reindex: %w", err)
	}
	if err := index.SaveSnapshotFile(path, head); err != nil {
		return ReindexResult{}, fmt.Errorf("save snapshot: %w", err)
	}
	return ReindexResult{Head: head, Documents: index.Len(), Path: path}, nil
}

type CreateUserInput struct {
	Username    string
	DisplayName string
	Password    string
	Roles       []string
}

// CreateUser provisions an account as the system caller, for bootstrapping the first
// administrator.
func CreateUser(ctx context.Context, log *logger.Logger, cfg Config, in CreateUserInput) (domainagg.UserResult, error) {
	roles := make([]auth.Role, 0, len(in.Roles))
	for _, name := range in.Roles {
		r, err := auth.ParseRole(name)
		if err != nil {
			return domainagg.UserResult{}, err
		}
		roles = append(roles, r)
	}
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return domainagg.UserResult{}, err
	}
	displayName := in.DisplayName
	if strings.TrimSpace(displayName) == "" {
		displayName = in.Username
	}

	theDB, closeDB, err := OpenDatabase(log, cfg)
	if err != nil {
		return domainagg.UserResult{}, err
	}
	defer closeDB()

	users := aggregates.NewUserAggregate(aggregates.UserAggregateDeps{Base: aggregates.BaseDeps{
		DB:    theDB,
		Log:   log,
		Repos: repos.NewSet(theDB, log),
	}})
	return users.CreateUser(ctx, auth.SystemCaller(), domainagg.CreateUserInput{
		Username:       in.Username,
		DisplayName:    displayName,
		HashedPassword: hashed,
		Roles:          roles,
	})
}
