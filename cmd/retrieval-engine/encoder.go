// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/retrieval-engine/internal/encoder"
	"github.com/pdiddy/retrieval-engine/pkg/types"
)

// encoderConfig merges encoder settings from flags, the config file, and
// loaded secrets.
func encoderConfig(cmd *cobra.Command) types.EncoderConfig {
	checkpoint, _ := cmd.Flags().GetString("checkpoint")
	remoteURL, _ := cmd.Flags().GetString("remote-url")

	cfg := types.EncoderConfig{
		Backend:       types.EncoderLocal,
		CheckpointDir: checkpoint,
		RemoteURL:     remoteURL,
		RemoteModel:   viper.GetString("encoder.remote_model"),
		RemoteAPIKey:  secretDefault("embedding-api-key", viper.GetString("encoder.remote_api_key")),
	}
	if cfg.RemoteURL == "" {
		cfg.RemoteURL = viper.GetString("encoder.remote_url")
	}
	if cfg.RemoteURL != "" {
		cfg.Backend = types.EncoderRemote
	}
	cfg.UserAgent = viper.GetString("http.user_agent")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "retrieval-engine/" + version
	}
	if t := viper.GetDuration("http.timeout"); t > 0 {
		cfg.Timeout = t
	}
	return cfg
}

// buildEncoder constructs the configured encoder and a fingerprint that
// identifies its weights for the index encode cache.
func buildEncoder(cfg types.EncoderConfig) (encoder.Encoder, string, error) {
	switch cfg.Backend {
	case types.EncoderRemote:
		enc, err := encoder.NewRemote(cfg)
		if err != nil {
			return nil, "", err
		}
		return enc, "remote:" + cfg.RemoteURL + ":" + cfg.RemoteModel, nil

	case types.EncoderLocal, "":
		if cfg.CheckpointDir == "" {
			return nil, "", fmt.Errorf("no checkpoint given: use --checkpoint or configure a remote encoder")
		}
		enc, err := encoder.Load(cfg.CheckpointDir)
		if err != nil {
			return nil, "", err
		}
		meta, err := encoder.ReadMeta(cfg.CheckpointDir)
		if err != nil {
			return nil, "", err
		}
		fp := fmt.Sprintf("local:dim=%d:vocab=%d:epoch=%d:created=%s",
			meta.Dimension, meta.VocabSize, meta.Epoch, meta.Created.Format(time.RFC3339Nano))
		return enc, fp, nil

	default:
		return nil, "", fmt.Errorf("unknown encoder backend %q", cfg.Backend)
	}
}
