package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"image-registrator/internal/imageio"
	"image-registrator/internal/ledger"
	"image-registrator/internal/registration"
)

var (
	registerReference string
	registerPoints    string
	registerOutput    string
	registerPointsOut string
)

var registerCmd = &cobra.Command{
	Use:   "register <moving-image>",
	Short: "Warp one image onto the reference canvas",
	Long: `Register loads the reference and moving images, reads the control
point pairs from a CSV file (or seeds the deterministic defaults when no
file is given), estimates the perspective transform and writes the warped
image. The output always has the reference dimensions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession(registerReference, args[0], registerPoints)
		if err != nil {
			return err
		}

		registered, err := session.Apply()
		if err != nil {
			return err
		}

		out := registerOutput
		if out == "" {
			out = filepath.Join(filepath.Dir(args[0]),
				imageio.RegisteredName(args[0], registerReference))
		}
		if err := imageio.Save(out, registered, imageio.SaveOptions{JPEGQuality: cfg.JPEGQuality}); err != nil {
			return err
		}

		if registerPointsOut != "" {
			entry, err := session.ExportLedgerEntry()
			if err != nil {
				return err
			}
			if err := ledger.WriteFile(registerPointsOut, entry); err != nil {
				return err
			}
		}

		h, err := session.Transform()
		if err != nil {
			return err
		}
		slog.Info("image registered", "output", out,
			"mean_error_px", fmt.Sprintf("%.3f", registration.ReprojectionError(session.Points(), h)))
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerReference, "reference", "r", "", "Reference image path (required)")
	registerCmd.Flags().StringVarP(&registerPoints, "points", "p", "", "Control point CSV path (default: seeded points)")
	registerCmd.Flags().StringVarP(&registerOutput, "out", "o", "", "Output path (default: <moving>_registered_to_<reference>)")
	registerCmd.Flags().StringVar(&registerPointsOut, "points-out", "", "Save the control points used to this CSV path")
	registerCmd.MarkFlagRequired("reference")
	rootCmd.AddCommand(registerCmd)
}

// newSession builds a registration session from the reference image, the
// moving image and an optional saved control point file, logging any
// metadata mismatch warnings the import produces. Without a point file the
// session keeps its seeded default points.
func newSession(refPath, movPath, pointsPath string) (*registration.Session, error) {
	ref, err := imageio.Load(refPath)
	if err != nil {
		return nil, err
	}
	mov, err := imageio.Load(movPath)
	if err != nil {
		return nil, err
	}

	session := registration.NewSession()
	session.SetReference(ref, filepath.Base(refPath))
	if err := session.SetMoving(mov, filepath.Base(movPath)); err != nil {
		return nil, err
	}

	if pointsPath == "" {
		return session, nil
	}

	entry, err := ledger.ReadFile(pointsPath)
	if err != nil {
		return nil, err
	}
	warnings, err := session.ImportLedgerEntry(entry)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Warn(w)
	}
	return session, nil
}
