package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/desertthunder/playlistdl/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Prompter collects console input.
type Prompter interface {
	Select(message string, options []string) (int, error)
	Input(message, def string) (string, error)
	Password(message string) (string, error)
}

// terminalAttached reports whether stdin and stdout are both terminals.
func terminalAttached() bool {
	tty := func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return tty(os.Stdin) && tty(os.Stdout)
}

// surveyPrompter asks with survey's interactive widgets.
type surveyPrompter struct{}

func (surveyPrompter) Select(message string, options []string) (int, error) {
	var idx int
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &idx)
	return idx, err
}

func (surveyPrompter) Input(message, def string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer)
	return strings.TrimSpace(answer), err
}

func (surveyPrompter) Password(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Password{Message: message}, &answer)
	return strings.TrimSpace(answer), err
}

// linePrompter reads whole lines, for pipes and dumb terminals.
type linePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewScanner(in), out: out}
}

func (p *linePrompter) Select(message string, options []string) (int, error) {
	fmt.Fprintln(p.out, message)
	for i, opt := range options {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, opt)
	}

	choices := fmt.Sprintf("1-%d", len(options))
	if len(options) == 2 {
		choices = "1 or 2"
	}
	fmt.Fprintf(p.out, "Enter choice (%s): ", choices)

	line, err := p.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(options) {
		return 0, fmt.Errorf("%w: %q", shared.ErrInvalidChoice, line)
	}
	return n - 1, nil
}

func (p *linePrompter) Input(message, def string) (string, error) {
	fmt.Fprintf(p.out, "%s ", message)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *linePrompter) Password(message string) (string, error) {
	return p.Input(message, "")
}

// readLine returns the next trimmed line; end of input reads as an empty line.
func (p *linePrompter) readLine() (string, error) {
	if !p.in.Scan() {
		return "", p.in.Err()
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Prompt runs the interactive flow: service choice, credentials, then a URL.
//
// Input errors are printed and end the flow normally. Resolution errors are returned.
func (r *Runner) Prompt(ctx context.Context, cmd *cli.Command) error {
	plain := cmd.Bool("plain")
	dest := r.config.Downloads.Directory

	r.writePlainHeader("Playlist Downloader")
	choice, err := r.prompter.Select("Select service:", []string{"Spotify", "YouTube"})
	if err != nil {
		return r.inputError(err)
	}

	var result *tasks.BatchResult
	switch choice {
	case 0:
		var creds shared.SpotifyConfig
		if r.config.Credentials.Spotify.Complete() {
			r.writePlain("Using Spotify credentials from config.\n")
		} else {
			creds.ClientID = r.config.Credentials.Spotify.ClientID
			if creds.ClientID, err = r.prompter.Input("Enter Spotify Client ID:", creds.ClientID); err != nil {
				return err
			}
			if creds.ClientSecret, err = r.prompter.Password("Enter Spotify Client Secret:"); err != nil {
				return err
			}
			if !creds.Complete() {
				return r.inputError(fmt.Errorf("%w: Please provide both Client ID and Client Secret", shared.ErrMissingCredentials))
			}
		}

		url, err := r.prompter.Input("Enter Spotify link (playlist or track) URL:", "")
		if err != nil {
			return err
		}
		if _, err := tasks.ClassifySpotify(url); err != nil {
			return r.inputError(err)
		}

		catalog, err := r.spotifyCatalog(creds.ClientID, creds.ClientSecret)
		if err != nil {
			return r.inputError(err)
		}
		if result, err = r.runSpotify(ctx, catalog, url, dest, plain); err != nil {
			return err
		}

	case 1:
		url, err := r.prompter.Input("Enter YouTube link (playlist or video) URL:", "")
		if err != nil {
			return err
		}
		if _, err := tasks.ClassifyYouTube(url); err != nil {
			return r.inputError(err)
		}
		if result, err = r.runYouTube(ctx, url, dest, plain); err != nil {
			return err
		}

	default:
		return r.inputError(fmt.Errorf("%w: %d", shared.ErrInvalidChoice, choice+1))
	}

	return r.writeReport(result, "")
}

// inputError prints a user input error. Any other error is returned unchanged.
func (r *Runner) inputError(err error) error {
	for _, target := range []error{shared.ErrInvalidChoice, shared.ErrMissingCredentials, shared.ErrEmptyURL, shared.ErrInvalidURL} {
		if errors.Is(err, target) {
			r.logger.Debug("input rejected", "err", err)
			r.writePlain("Error: %v\n", err)
			return nil
		}
	}
	return err
}
