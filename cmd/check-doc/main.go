package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/llm"
	"doc-compliance-checker/internal/models"
	"doc-compliance-checker/internal/services"
)

func main() {
	rewrite := flag.Bool("rewrite", false, "also write a rewritten .docx next to the input")
	flag.Usage = func() {
		fmt.Println("Usage: go run cmd/check-doc/main.go [-rewrite] <document.pdf|document.docx>")
		fmt.Println("Example: go run cmd/check-doc/main.go -rewrite ./memo.docx")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	llmClient, err := llm.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	defer llmClient.Close()

	workDir, err := os.MkdirTemp("", "check-doc-*")
	if err != nil {
		log.Fatalf("Failed to create work directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	uploads, err := services.NewLocalStorage(filepath.Join(workDir, "uploads"))
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	outputDir := filepath.Dir(path)
	outputs, err := services.NewLocalStorage(outputDir)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}

	tasks := services.NewTaskService()
	compliance := services.NewComplianceService(tasks, uploads, services.NewGrammarService(cfg.Grammar),
		services.NewAIService(llmClient, outputs))

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	sub, err := compliance.Submit(ctx, filepath.Base(path), "", file)
	file.Close()
	if err != nil {
		log.Fatalf("Failed to submit %s: %v", path, err)
	}

	fmt.Printf("=== Compliance Check ===\n\n")
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Task ID: %s\n", sub.Task.ID)
	fmt.Printf("LLM provider: %s\n\n", cfg.LLM.Provider)

	compliance.Process(ctx, sub)

	task, err := tasks.Get(ctx, sub.Task.ID)
	if err != nil {
		log.Fatalf("Failed to load task: %v", err)
	}

	out, err := json.MarshalIndent(task.Report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Printf("Status: %s\n", task.Status)
	fmt.Println(string(out))

	if task.Status != models.TaskStatusCompleted {
		os.Exit(2)
	}

	if *rewrite {
		doc, _, err := compliance.ModifyDocument(ctx, task.ID)
		if err != nil {
			log.Fatalf("Failed to rewrite document: %v", err)
		}
		fmt.Printf("\nRewritten document: %s (%d bytes)\n", doc.Location, len(doc.Data))
	}
}
