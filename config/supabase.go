package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"
)

// NewSupabaseClient creates the Supabase client with the service key so the
// API can write rows regardless of row level security.
func NewSupabaseClient(cfg *Config, logger logrus.FieldLogger) (*supa.Client, error) {
	client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("error initializing Supabase client: %w", err)
	}
	logger.WithField("url", cfg.SupabaseURL).Info("Supabase client initialized with service key.")
	return client, nil
}
