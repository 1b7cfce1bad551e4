package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gadicohen93/deepcurrent/shared/db"
	"github.com/gadicohen93/deepcurrent/store"
)

// openStore connects to PostgreSQL and returns the store plus a cleanup func.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	pool, err := db.ConnectSimple(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return store.New(pool), pool.Close, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
