package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/config"
	"github.com/Cyclone1070/fileview/internal/filetype"
	"github.com/Cyclone1070/fileview/internal/fsutil"
	"github.com/Cyclone1070/fileview/internal/render"
)

var (
	errNotViewable = errors.New("file type not supported")
	errBinary      = errors.New("binary file cannot be displayed")
	errTooLarge    = errors.New("file too large to view")
)

type viewOptions struct {
	Style   string
	Width   int
	MaxSize int64
}

func newViewCmd() *cobra.Command {
	var opts viewOptions
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Render an allowed file in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pol, err := loadPolicy(config.NewLoader())
			if err != nil {
				return err
			}
			opts.MaxSize = cfg.Limits.MaxViewSize
			fs := fsutil.NewOSFileSystem()
			return writeView(cmd.OutOrStdout(), access.NewValidator(pol, fs), fs, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Style, "style", "", "glamour style (default: detect from terminal)")
	cmd.Flags().IntVarP(&opts.Width, "width", "w", 100, "word wrap width")
	return cmd
}

// writeView resolves raw through the allowlist and prints it: markdown via
// glamour, other text files as is.
func writeView(w io.Writer, v *access.Validator, fs *fsutil.OSFileSystem, raw string, opts viewOptions) error {
	target, err := v.ResolveForRead(raw)
	if err != nil {
		return err
	}
	ext := filetype.Ext(target.Path)
	if !filetype.IsViewable(ext) {
		return errNotViewable
	}

	info, err := fs.Stat(target.Path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &access.PathError{Op: "view", Path: raw, Kind: access.KindTypeMismatch, Cause: fmt.Errorf("%s is a directory", target.Path)}
	}
	if opts.MaxSize > 0 && info.Size() > opts.MaxSize {
		return errTooLarge
	}

	content, err := fs.ReadFileHead(target.Path, 0)
	if err != nil {
		return err
	}
	if fsutil.IsBinary(content[:min(len(content), fsutil.SniffSize)]) {
		return errBinary
	}

	if !filetype.IsMarkdown(ext) {
		_, err = w.Write(content)
		return err
	}
	out, err := render.Terminal(content, opts.Style, opts.Width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
