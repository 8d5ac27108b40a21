package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"classgraph/internal/config"
	"classgraph/internal/export"
	"classgraph/internal/logging"
	"classgraph/internal/session"
	"classgraph/internal/source"
	"classgraph/internal/storage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "classgraph",
		Short: "Import compiled classes and resolve their annotations",
	}
	dbPath     string
	configPath string
	verbosity  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the class graph database (SQLite), overrides the config")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "classgraph.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", -1, "Log verbosity, overrides the config")

	importCmd.Flags().String("export", "", "Also write the validated JSON snapshot to this file")
	importCmd.Flags().Int("workers", 0, "Units read in parallel (0 uses the config or GOMAXPROCS)")
	importCmd.Flags().Bool("runtime-only", false, "Drop class-retention annotations")
	importCmd.Flags().String("meta", "", "After importing, list classes meta-annotated with this type")
	annotationsCmd.Flags().Bool("json", false, "Print matches as JSON lines")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(annotationsCmd)
	rootCmd.AddCommand(stubsCmd)
}

// loadConfig applies the persistent flags on top of the config file.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if verbosity >= 0 {
		cfg.Log.Verbosity = verbosity
	}
	return cfg
}

func initStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Import class files, directories and archives into the local database",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := logging.New(cfg.Log.Verbosity)

		if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
			cfg.Import.Workers = w
		}
		includeInvisible := cfg.KeepInvisible()
		if runtimeOnly, _ := cmd.Flags().GetBool("runtime-only"); runtimeOnly {
			includeInvisible = false
		}

		fmt.Printf("📂 Collecting units from %s\n", strings.Join(args, ", "))
		units, err := source.NewCrawler(logger).Collect(args...)
		if err != nil {
			log.Fatalf("Failed to collect units: %v", err)
		}
		if len(units) == 0 {
			fmt.Println("✅ No class files found.")
			return
		}

		cache, err := session.NewDescriptorCache(cfg.Import.CacheSize)
		if err != nil {
			log.Fatalf("Failed to create descriptor cache: %v", err)
		}

		fmt.Printf("🚀 Importing %d units...\n", len(units))
		start := time.Now()
		res, err := session.Import(cmd.Context(), units,
			session.WithWorkers(cfg.Import.Workers),
			session.WithCache(cache),
			session.WithIncludeInvisible(includeInvisible),
			session.WithLogger(logger),
		)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("✅ Imported in %v: %d classes resolved, %d stubs.\n", time.Since(start), res.Stats.Resolved, res.Stats.Stubs)
		printDiagnostics(res.Diagnostics)

		store := initStore(cfg)
		defer store.Close()
		fmt.Println("💾 Saving to local database...")
		if err := store.SaveGraph(cmd.Context(), res.Graph); err != nil {
			log.Fatalf("Failed to save graph: %v", err)
		}

		if path, _ := cmd.Flags().GetString("export"); path != "" {
			if err := writeSnapshot(path, export.FromGraph(res.Graph)); err != nil {
				log.Fatalf("Failed to export snapshot: %v", err)
			}
			fmt.Printf("📄 Snapshot written to %s\n", path)
		}

		if meta, _ := cmd.Flags().GetString("meta"); meta != "" {
			matches := res.Graph.AnnotatedWith(meta, true)
			fmt.Printf("🔍 %d classes annotated with @%s:\n", len(matches), meta)
			for _, c := range matches {
				fmt.Printf("  %s\n", c.Name())
			}
		}

		fmt.Printf("🎉 Import complete! Database: %s\n", cfg.Storage.DBPath)
	},
}

func writeSnapshot(path string, snap export.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printDiagnostics(diags []session.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	counts := make(map[session.DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
		label := color.YellowString(string(d.Kind))
		if d.Kind == session.MalformedUnit || d.Kind == session.DecodeFailure {
			label = color.RedString(string(d.Kind))
		}
		fmt.Printf("  %s %s: %s\n", label, d.Unit, d.Message)
	}

	kinds := make([]session.DiagnosticKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	var parts []string
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
	}
	fmt.Printf("⚠️  %d diagnostics (%s)\n", len(diags), strings.Join(parts, ", "))
}

var showCmd = &cobra.Command{
	Use:   "show [class]",
	Short: "Show one stored class with its members and annotations",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		c, err := store.LoadClass(cmd.Context(), args[0])
		if err != nil {
			log.Fatalf("Failed to load class: %v", err)
		}

		fmt.Printf("%s %s\n", c.Kind, color.New(color.Bold).Sprint(c.Name))
		fmt.Printf("  unit:   %s\n", c.Unit)
		if c.Super != "" {
			fmt.Printf("  super:  %s\n", c.Super)
		}
		if len(c.Interfaces) > 0 {
			fmt.Printf("  implements: %s\n", strings.Join(c.Interfaces, ", "))
		}
		if c.SourceFile != "" {
			fmt.Printf("  source: %s\n", c.SourceFile)
		}
		printAnnotations("  ", c.Annotations)
		for _, m := range c.Members {
			fmt.Printf("  %s %s %s\n", m.Kind, m.Name, color.CyanString(m.Descriptor))
			printAnnotations("    ", m.Annotations)
			for _, pa := range m.ParameterAnnotations {
				printAnnotations(fmt.Sprintf("    param %d ", pa.Index), pa.Annotations)
			}
			if m.Default != nil {
				fmt.Printf("    default %v\n", m.Default)
			}
		}
	},
}

func printAnnotations(indent string, anns []export.Annotation) {
	for _, a := range anns {
		fmt.Printf("%s%s %v\n", indent, color.GreenString("@"+a.Type), a.Properties)
	}
}

var annotationsCmd = &cobra.Command{
	Use:   "annotations [type]",
	Short: "List stored occurrences of one annotation type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		records, err := store.FindAnnotated(cmd.Context(), args[0])
		if err != nil {
			log.Fatalf("Failed to query annotations: %v", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		for _, r := range records {
			if asJSON {
				printJSON(r)
				continue
			}
			target := r.Class
			if r.Member != "" {
				target += "." + r.Member + r.Descriptor
			}
			if r.Parameter >= 0 {
				target += fmt.Sprintf(" param %d", r.Parameter)
			}
			fmt.Printf("%s %v\n", target, r.Properties)
		}
		if !asJSON {
			fmt.Printf("🔍 %d occurrences of @%s\n", len(records), args[0])
		}
	},
}

var stubsCmd = &cobra.Command{
	Use:   "stubs",
	Short: "List types that were referenced but never imported",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		stubs, err := store.Stubs(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to query stubs: %v", err)
		}
		for _, s := range stubs {
			fmt.Println(s)
		}
	},
}

func printJSON(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(raw))
}
