package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameRoundsCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Host a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Envelope[CreatedGame]

			if err := client.Post("/api/games", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result.Data)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Get a game you host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Envelope[Game]

			if err := client.Get("/api/games/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result.Data)
			return nil
		},
	}
}

func newGameRoundsCmd() *cobra.Command {
	var types []string
	var file string

	cmd := &cobra.Command{
		Use:   "rounds <game-id>",
		Short: "Configure the five rounds of a game (host only)",
		Long: `Replace a game's rounds.

Either list five round type ids in play order with --types, taking names
and descriptions from the server's catalogue, or pass a JSON file holding
an array of rounds with --file.`,
		Example: `  pqctl game rounds <game-id> --types clue-five,rhyme-time,answer-smash,sound-round,broken-karaoke
  pqctl game rounds <game-id> --file rounds.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rounds []Round
			var err error

			switch {
			case file != "" && len(types) > 0:
				return errors.New("use either --types or --file, not both")
			case file != "":
				rounds, err = readRoundsFile(file)
			case len(types) > 0:
				rounds, err = roundsFromCatalogue(types)
			default:
				return errors.New("one of --types or --file is required")
			}
			if err != nil {
				return err
			}

			req := map[string]any{"rounds": rounds}
			var result Envelope[GameRounds]

			if err := client.Put("/api/games/"+url.PathEscape(args[0])+"/rounds", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result.Data)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&types, "types", nil, "Round type ids in play order")
	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of rounds")

	return cmd
}

// roundsFromCatalogue builds rounds for the given type ids, ordered as given
func roundsFromCatalogue(ids []string) ([]Round, error) {
	var catalogue Envelope[[]RoundType]
	if err := client.Get("/api/round-types", &catalogue); err != nil {
		return nil, fmt.Errorf("failed to fetch round types: %w", err)
	}

	byID := make(map[string]RoundType, len(catalogue.Data))
	for _, rt := range catalogue.Data {
		byID[rt.ID] = rt
	}

	rounds := make([]Round, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		rt, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown round type %q (see pqctl round-types)", id)
		}
		rounds = append(rounds, Round{
			ID:          rt.ID,
			Name:        rt.Name,
			Description: rt.Description,
			Order:       i + 1,
			Questions:   []string{},
		})
	}
	return rounds, nil
}

func readRoundsFile(path string) ([]Round, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rounds []Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rounds, nil
}
