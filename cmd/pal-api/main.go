package main

import (
	"context"
	"log"
	"net/http"
	"time"

	httpadapter "github.com/mindsprout/pal-agent/internal/adapters/http"
	"github.com/mindsprout/pal-agent/internal/adapters/llm"
	firestorestore "github.com/mindsprout/pal-agent/internal/adapters/storage/firestore"
	memstore "github.com/mindsprout/pal-agent/internal/adapters/storage/memory"
	sqlitestore "github.com/mindsprout/pal-agent/internal/adapters/storage/sqlite"
	journalapp "github.com/mindsprout/pal-agent/internal/app/journal"
	"github.com/mindsprout/pal-agent/internal/app/session"
	"github.com/mindsprout/pal-agent/internal/app/tokens"
	"github.com/mindsprout/pal-agent/internal/config"
	"github.com/mindsprout/pal-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM: mock or Vertex by config (mock is the local default).
	var (
		chatLLM  domain.ChatClient
		reporter domain.ReportWriter
		insights domain.InsightWriter
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock client")
		mock := llm.NewMockClient()
		chatLLM, reporter, insights = mock, mock, mock
	} else {
		log.Println("[LLM] Using Vertex client")
		vertex, err := llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Vertex client: %v", err)
		}
		chatLLM, reporter, insights = vertex, vertex, vertex
	}

	// Storage: memory, SQLite, or Firestore.
	var (
		reportStore  domain.ReportStore
		journalStore domain.JournalStore
		tokenStore   domain.TokenStore
		goalStore    domain.GoalStore
	)
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		// 1 store, implements 4 interfaces
		reportStore = fsStore
		journalStore = fsStore
		tokenStore = fsStore
		goalStore = fsStore

	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		sqlStore, err := sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer sqlStore.Close()
		reportStore = sqlStore
		journalStore = sqlStore
		tokenStore = sqlStore
		goalStore = sqlStore

	default:
		log.Println("[STORE] Using in-memory storage")
		reportStore = memstore.NewReportStore()
		journalStore = memstore.NewJournalStore()
		tokenStore = memstore.NewTokenStore()
		goalStore = memstore.NewGoalStore()
	}

	tokenSvc := tokens.NewService(tokenStore, cfg.Session.TokenCap, cfg.Session.RegenPeriod)

	machineCfg := session.Config{
		ChatLengthSeconds: int(cfg.Session.ChatLength / time.Second),
		ExtensionSeconds:  int(cfg.Session.ExtensionLength / time.Second),
		MaxExtensions:     cfg.Session.MaxExtensions,
		BreatheStart:      cfg.Session.BreatheStart,
		MessageLimit:      cfg.Session.MessageLimit,
		DebounceWindow:    cfg.Session.DebounceWindow,
	}

	registry := session.NewRegistry(cfg.Session.RegistryTTL, func(userID domain.UserID) *session.Machine {
		ledger := session.NewLedger(userID, tokenSvc, cfg.Session.TokenCap, cfg.Session.RegenPeriod)
		// Best effort: the first reconcile corrects the optimistic start.
		if err := ledger.RefreshStatus(ctx); err != nil {
			log.Printf("initial token refresh for %s: %v", userID, err)
		}
		ledger.StartRegen(time.Minute)
		return session.NewMachine(userID, ledger, chatLLM, reporter, reportStore, machineCfg, nil)
	})

	journalSvc := journalapp.NewService(journalStore, insights)

	handler := httpadapter.NewServer(registry, journalSvc, tokenSvc, reportStore, goalStore)

	addr := ":" + cfg.Port
	log.Println("Pal API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
