package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"randomradio/cache"
	"randomradio/core/library"
	"randomradio/core/narrate"
	"randomradio/core/speech"
	"randomradio/db"
	"randomradio/repository"
	"randomradio/storage"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that every station dependency is reachable",
	Long:  `Probes the album library, the narration API, the TTS voice, ffmpeg, and the optional Redis and MinIO services, and reports what works.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		failed := 0

		report := func(name string, err error) {
			if err != nil {
				failed++
				fmt.Printf("FAIL  %-22s %v\n", name, err)
				return
			}
			fmt.Printf("ok    %s\n", name)
		}

		albums, err := library.Scan(cfg.AlbumsRoot)
		if err != nil {
			report("albums root", err)
		} else {
			total := 0
			for _, album := range albums {
				total += len(album.Tracks)
			}
			report(fmt.Sprintf("albums root (%d albums, %d tracks)", len(albums), total), nil)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		narrator := narrate.NewGenerator(&narrate.GeneratorConfig{
			APIBaseURL: cfg.NarrateAPIURL,
			APIKey:     cfg.NarrateAPIKey,
			Model:      cfg.NarrateModel,
			Timeout:    cfg.NarrateTimeout,
		})
		report(fmt.Sprintf("narration API (%s)", cfg.NarrateAPIURL), narrator.Ping(ctx))

		report(fmt.Sprintf("piper (%s)", cfg.PiperPath), speech.CheckBinary(cfg.PiperPath))
		if voice, err := speech.LookupVoice(cfg.VoicesDir, cfg.VoiceName); err != nil {
			report("voice", err)
		} else {
			report(fmt.Sprintf("voice (%s)", voice.Name), nil)
		}

		_, err = exec.LookPath(cfg.FFmpegPath)
		report(fmt.Sprintf("ffmpeg (%s)", cfg.FFmpegPath), err)

		if err := db.ConnectDB(cfg); err != nil {
			report("catalog database", err)
		} else if err := db.InitDB(); err != nil {
			report("catalog database", err)
		} else {
			count, err := repository.NewSQLiteTrackRepository(db.GormDB).CountTracks()
			if err != nil {
				report("catalog database", err)
			} else {
				report(fmt.Sprintf("catalog database (%d tracks)", count), nil)
			}
			db.CloseDB()
		}

		if cfg.RedisHost == "" {
			fmt.Println("skip  redis (not configured)")
		} else if err := cache.ConnectRedis(cfg); err != nil {
			report("redis", err)
		} else {
			report("redis", cache.TestRedis())
			cache.CloseRedis()
		}

		if cfg.MinioEndpoint == "" {
			fmt.Println("skip  minio (not configured)")
		} else if err := storage.InitMinio(cfg); err != nil {
			report("minio", err)
		} else {
			objects, bytes, err := storage.BucketStats(ctx, cfg)
			if err != nil {
				report("minio", err)
			} else {
				report(fmt.Sprintf("minio (%d objects, %d bytes)", objects, bytes), nil)
			}
		}

		if failed > 0 {
			fmt.Printf("\n%d check(s) failed\n", failed)
			os.Exit(1)
		}
		fmt.Println("\nAll checks passed.")
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
