package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"montage-media/infrastructure/opencv"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"gpu"},
	Short:   "Check external tools and hardware acceleration",
	Long: `Verify that ffmpeg and ffprobe can be run, list the hardware acceleration
methods of the local ffmpeg build and report whether the OpenCV decoder was
compiled in (build with -tags detection).`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// Verifier checks that an external tool can be run
type Verifier interface {
	VerifyInstalled(ctx context.Context) error
}

// AccelLister lists hardware acceleration methods
type AccelLister interface {
	HardwareAccels(ctx context.Context) ([]string, error)
}

// DoctorDependencies are the checks run by the doctor command
type DoctorDependencies struct {
	FFmpeg             Verifier
	Inspector          Verifier
	Accels             AccelLister
	DetectionAvailable bool
}

// ErrDoctorFailed is returned when at least one check fails
var ErrDoctorFailed = errors.New("environment check failed")

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}

	return RunDoctorWithDependencies(cmd.Context(), DoctorDependencies{
		FFmpeg:             services.muxer,
		Inspector:          services.inspector,
		Accels:             services.muxer,
		DetectionAvailable: opencv.Available(),
	}, DefaultOutput)
}

// RunDoctorWithDependencies runs the doctor command with injected dependencies
func RunDoctorWithDependencies(ctx context.Context, deps DoctorDependencies, out OutputWriter) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	problems := 0

	if err := deps.FFmpeg.VerifyInstalled(ctx); err != nil {
		fmt.Fprintf(out, "ffmpeg:   MISSING (%v)\n", err)
		problems++
	} else {
		fmt.Fprintln(out, "ffmpeg:   ok")
	}

	if err := deps.Inspector.VerifyInstalled(ctx); err != nil {
		fmt.Fprintf(out, "ffprobe:  MISSING (%v)\n", err)
		problems++
	} else {
		fmt.Fprintln(out, "ffprobe:  ok")
	}

	if deps.DetectionAvailable {
		fmt.Fprintln(out, "opencv:   ok")
	} else {
		fmt.Fprintln(out, "opencv:   not compiled in (rebuild with -tags detection)")
		problems++
	}

	accels, err := deps.Accels.HardwareAccels(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(out, "hwaccel:  unknown (%v)\n", err)
	case len(accels) == 0:
		fmt.Fprintln(out, "hwaccel:  none, --gpu will fall back to software decoding")
	default:
		fmt.Fprintf(out, "hwaccel:  %s\n", strings.Join(accels, ", "))
	}

	if problems > 0 {
		return fmt.Errorf("%w: %d problem(s) found", ErrDoctorFailed, problems)
	}
	return nil
}
