package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"keeper/internal/agent"
	"keeper/internal/analytics"
	"keeper/internal/attachments"
	"keeper/internal/config"
	"keeper/internal/credentials"
	"keeper/internal/executor"
	"keeper/internal/llm"
	"keeper/internal/llm/mockclient"
	"keeper/internal/logging"
	"keeper/internal/openrouter"
	"keeper/internal/planner"
	"keeper/internal/repl"
	"keeper/internal/resolve"
	"keeper/internal/server"
	"keeper/internal/store"
	"keeper/internal/tooling"
	"keeper/internal/zai"
)

// Version is set via -ldflags during build.
var Version = "dev"

func main() {
	var (
		serveFlag       = flag.Bool("serve", false, "Run the HTTP API instead of the REPL")
		addrFlag        = flag.String("addr", "", "Listen address for -serve (overrides config)")
		instructionFlag = flag.String("i", "", "Process a single instruction and exit")
		actorFlag       = flag.String("as", "", "Act as this member (username)")
		providerFlag    = flag.String("provider", "", "LLM provider: zai, openrouter, mock (overrides config)")
		setKeyFlag      = flag.String("set-key", "", "Store an API key for a provider (reads the key from stdin)")
		versionFlag     = flag.Bool("version", false, "Print version and exit")
		devFlag         = flag.Bool("dev", false, "Enable developer logging")
	)
	flag.StringVar(instructionFlag, "instruction", "", "Process a single instruction and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Keeper version %s\n", Version)
		return
	}

	if *devFlag {
		logging.DevMode = true
	}

	credManager := credentials.NewManager()
	if *setKeyFlag != "" {
		key, err := readKeyFromStdin()
		if err != nil {
			log.Fatalf("read key: %v", err)
		}
		if err := credManager.SetKey(*setKeyFlag, key); err != nil {
			log.Fatalf("store key: %v", err)
		}
		fmt.Printf("Stored API key for %s.\n", *setKeyFlag)
		return
	}

	if err := config.EnsureDefaultConfig(); err != nil {
		log.Fatalf("ensure config: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *providerFlag != "" {
		cfg.Provider = *providerFlag
		if model := cfg.ProviderModels[cfg.Provider]; model != "" {
			cfg.Model = model
		}
	}
	if cfg.LogFile != "" {
		logging.UseFile(cfg.LogFile)
	}
	analytics.SetEndpoint(cfg.AnalyticsEndpoint)
	analytics.TrackAppStart(Version)
	analytics.TrackProvider(cfg.Provider)

	client, err := buildClient(cfg, credManager)
	if err != nil {
		log.Fatalf("configure provider: %v", err)
	}

	repo, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer repo.Close()
	if err := repo.SeedIfEmpty(); err != nil {
		log.Fatalf("seed store: %v", err)
	}

	registry := tooling.NewRegistry()
	loop := agent.NewLoop(client, registry, planner.New(client, cfg.PlanMaxTokens), cfg.MaxRounds)
	files := attachments.NewDir(cfg.AttachmentDir)
	processor := agent.NewProcessor(loop, executor.New(files), repo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *serveFlag:
		addr := cfg.ListenAddr
		if *addrFlag != "" {
			addr = *addrFlag
		}
		srv := server.New(processor, repo, cfg.APIToken, Version)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	case *instructionFlag != "":
		if err := runOnce(ctx, processor, repo, *instructionFlag, *actorFlag); err != nil {
			log.Fatalf("process: %v", err)
		}
	default:
		ui := repl.New(processor, repo, registry)
		if *actorFlag != "" {
			if err := ui.ActAs(*actorFlag); err != nil {
				log.Fatalf("unknown member %q: %v", *actorFlag, err)
			}
		}
		if err := ui.Run(ctx); err != nil {
			log.Fatalf("repl: %v", err)
		}
	}
}

func buildClient(cfg *config.Config, credManager *credentials.Manager) (llm.Client, error) {
	switch cfg.Provider {
	case "mock":
		return mockclient.New(), nil
	case "zai":
		apiKey, err := credManager.APIKeyFor("zai")
		if err != nil {
			return nil, err
		}
		return zai.NewClient(cfg.ZAIBaseURL, apiKey, cfg.Model, cfg.RequestTimeout(), nil)
	case "openrouter":
		apiKey, err := credManager.APIKeyFor("openrouter")
		if err != nil {
			return nil, err
		}
		return openrouter.NewClient(cfg.OpenRouterBaseURL, apiKey, cfg.Model, cfg.RequestTimeout(), nil), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func runOnce(ctx context.Context, processor *agent.Processor, repo *store.Store, instruction, actor string) error {
	actorID := ""
	if actor != "" {
		member, err := resolve.MemberByRef(repo.Snapshot(), actor)
		if err != nil {
			return err
		}
		actorID = member.ID
	}
	result, err := processor.Process(ctx, instruction, actorID)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func readKeyFromStdin() (string, error) {
	var key string
	if _, err := fmt.Fscanln(os.Stdin, &key); err != nil {
		return "", err
	}
	return key, nil
}
