package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/photoplay/internal"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/storageurl"
)

func encodeCommand() *cli.Command {
	defaults := internal.NewDefaultConfig().Payload
	return &cli.Command{
		Name:  "encode",
		Usage: "Print the scan-target URL for a piece of content",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Value: string(payload.KindLink), Usage: "voice or link"},
			&cli.StringFlag{Name: "content", Required: true, Usage: "Absolute URL the code points at"},
			&cli.StringFlag{Name: "base", Value: defaults.BaseURL, Usage: "Consumer page base URL"},
			&cli.StringFlag{Name: "origin", Value: defaults.Origin, Usage: "Producing application name"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			kind, err := payload.ParseKind(cmd.String("kind"))
			if err != nil {
				return err
			}
			asm, err := payload.NewAssembler(cmd.String("base"), payload.WithOrigin(cmd.String("origin")))
			if err != nil {
				return err
			}
			scanURL, err := asm.AssemblePayload(kind, cmd.String("content"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, scanURL)
			return nil
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Print the envelope carried by a scanned URL",
		ArgsUsage: "<scan-url>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			scanURL := cmd.Args().First()
			if scanURL == "" {
				return fmt.Errorf("decode: scan URL argument is required")
			}
			ref, err := payload.NewResolver().Resolve(scanURL)
			if err != nil {
				return err
			}
			text, err := payload.Serialize(ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, string(text))
			return nil
		},
	}
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Rebuild a storage download URL with its path separator escaped",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true, Usage: "Download URL as reported by storage"},
			&cli.StringFlag{Name: "path", Required: true, Usage: "Object path, e.g. audio/clip.webm"},
			&cli.StringFlag{Name: "token", Usage: "Download token (default: taken from --url)"},
			&cli.StringFlag{Name: "endpoint", Usage: "Object endpoint (default: derived from --url)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			rawURL := cmd.String("url")
			endpoint := cmd.String("endpoint")
			if endpoint == "" {
				var ok bool
				if endpoint, ok = storageurl.EndpointFromURL(rawURL); !ok {
					return fmt.Errorf("normalize: cannot derive the object endpoint from %q, pass --endpoint", rawURL)
				}
			}
			token := cmd.String("token")
			if token == "" {
				token = storageurl.TokenFromURL(rawURL)
			}
			fmt.Fprintln(cmd.Root().Writer, storageurl.New(endpoint).Normalize(rawURL, cmd.String("path"), token))
			return nil
		},
	}
}
