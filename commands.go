package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"simplecache/internal/cache/simpleCache"
	"simplecache/internal/logger"

	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// runWithCache bootstraps the cache for a single command invocation
func runWithCache(cmd *cobra.Command, fn func(ctx context.Context, c simpleCache.Service, out io.Writer) error) error {
	ctx := logger.WithLogEvent(cmd.Context(), logger.NewCommandLogEvent())

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a.cache, cmd.OutOrStdout())
}

func getCommand() *cobra.Command {
	var def string

	cmd := &cobra.Command{
		Use:   "get <key> [key...]",
		Short: "Print the value stored under one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var defValue interface{}
			if cmd.Flags().Changed("default") {
				defValue = parseValue(def)
			}

			return runWithCache(cmd, func(ctx context.Context, c simpleCache.Service, out io.Writer) error {
				if len(args) == 1 {
					value, err := c.Get(ctx, args[0], defValue)
					if err != nil {
						return err
					}
					return printJSON(out, value)
				}

				values, err := c.GetMultiple(ctx, args, defValue)
				if values != nil {
					if printErr := printJSON(out, values); printErr != nil {
						return printErr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&def, "default", "", "value printed for missing keys")
	return cmd
}

func setCommand() *cobra.Command {
	var ttlFlag string

	cmd := &cobra.Command{
		Use:   "set <key> <value> [<key> <value>...]",
		Short: "Store values; each value is parsed as JSON and falls back to a plain string",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args)%2 != 0 {
				return fmt.Errorf("expected key/value pairs, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := simpleCache.ParseTTL(ttlFlag)
			if err != nil {
				return err
			}

			return runWithCache(cmd, func(ctx context.Context, c simpleCache.Service, out io.Writer) error {
				if len(args) == 2 {
					ok, err := c.Set(ctx, args[0], parseValue(args[1]), ttl)
					if err != nil {
						return err
					}
					return printJSON(out, ok)
				}

				values := orderedmap.New[string, interface{}]()
				for i := 0; i < len(args); i += 2 {
					values.Set(args[i], parseValue(args[i+1]))
				}

				ok, err := c.SetMultiple(ctx, values, ttl)
				if printErr := printJSON(out, ok); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&ttlFlag, "ttl", "", "time to live: seconds, ISO-8601 (PT1H) or Go duration (90s)")
	return cmd
}

func hasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "has <key>",
		Short: "Report whether a key is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCache(cmd, func(ctx context.Context, c simpleCache.Service, out io.Writer) error {
				exists, err := c.Has(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(out, exists)
			})
		},
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key> [key...]",
		Short: "Remove one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCache(cmd, func(ctx context.Context, c simpleCache.Service, out io.Writer) error {
				var (
					ok  bool
					err error
				)
				if len(args) == 1 {
					ok, err = c.Delete(ctx, args[0])
				} else {
					ok, err = c.DeleteMultiple(ctx, args)
				}
				if printErr := printJSON(out, ok); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
}

func clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCache(cmd, func(ctx context.Context, c simpleCache.Service, out io.Writer) error {
				ok, err := c.Clear(ctx)
				if err != nil {
					return err
				}
				return printJSON(out, ok)
			})
		},
	}
}

// parseValue decodes raw as JSON, keeping it as a string when it is not valid JSON
func parseValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
