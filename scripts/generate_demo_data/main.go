// ===========================================================================
// scripts/generate_demo_data — Generate a demo inventory database
//
// Usage:
//   go run ./scripts/generate_demo_data --db-path ./blastradius-demo.db
// ===========================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"github.com/atlasops/blastradius/internal/inventory"
)

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

var (
	dbPath = flag.String("db-path", "./blastradius-demo.db", "Output SQLite database path")
	orgID  = flag.String("org-id", "org-demo", "Organization ID to seed")
	count  = flag.Int("count", 40, "Number of services to generate")
	seed   = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// ---------------------------------------------------------------------------
// Realistic inventory vocabulary
// ---------------------------------------------------------------------------

var serviceNames = []string{
	"checkout", "payments", "ledger", "catalog", "search", "pricing",
	"inventory", "shipping", "notifications", "identity", "sessions",
	"billing", "invoicing", "reporting", "audit", "webhooks", "ingest",
	"recommendations", "feature-flags", "experiments", "fraud", "refunds",
	"orders", "carts", "profiles", "reviews", "media", "geo", "tax",
	"support", "exports", "imports", "scheduler", "mailer", "metrics-proxy",
	"gateway", "edge-router", "config", "secrets", "registry",
}

var owners = []string{
	"platform", "payments-core", "growth", "commerce", "trust",
	"data-infra", "", // some services have no owner on purpose
}

var dependencies = []string{
	"postgres", "redis", "kafka", "elasticsearch", "rabbitmq",
	"stripe-api", "sendgrid", "s3", "dynamo", "memcached",
}

var runtimes = []string{
	"aws:lambda:eu-west-1", "aws:ecs:eu-west-1", "aws:ec2:us-east-1",
	"gcp:cloudrun:europe-west1", "k8s:prod-cluster-1",
}

var languages = []string{"go", "typescript", "python", "java", ""}

func main() {
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	// Remove any existing demo DB.
	os.Remove(*dbPath)

	log.Println("══════════════════════════════════════════")
	log.Println("  BLASTRADIUS — Demo Data Generator")
	log.Println("══════════════════════════════════════════")
	log.Printf("  DB:       %s", *dbPath)
	log.Printf("  Org:      %s", *orgID)
	log.Printf("  Services: %d", *count)
	log.Println()

	// =====================================================================
	// Step 1: Open storage
	// =====================================================================
	log.Println("[1/3] Opening storage…")

	store, err := inventory.New(*dbPath)
	if err != nil {
		log.Fatalf("  ✗ Failed to open storage: %v", err)
	}
	defer store.Close()

	// =====================================================================
	// Step 2: Generate services
	// =====================================================================
	log.Println("[2/3] Generating services…")

	n := *count
	if n > len(serviceNames) {
		n = len(serviceNames)
	}

	services := make([]*inventory.Service, 0, n)
	for i := 0; i < n; i++ {
		name := serviceNames[i]
		svc := &inventory.Service{
			ID:             uuid.New().String(),
			OrganizationID: *orgID,
			Name:           name,
			Owner:          owners[rng.Intn(len(owners))],
			Language:       languages[rng.Intn(len(languages))],
		}

		// Most services have a repository; a few are left blank so the
		// confidence scoring has something to flag.
		if rng.Float64() > 0.15 {
			svc.Repository = fmt.Sprintf("github.com/acme/%s", name)
		}
		if rng.Float64() > 0.3 {
			svc.Description = fmt.Sprintf("The %s service.", name)
		}

		// Interfaces: always a production one, sometimes staging/dev.
		rt := runtimes[rng.Intn(len(runtimes))]
		svc.Interfaces = append(svc.Interfaces, inventory.Interface{
			Domain:      fmt.Sprintf("%s.acme.io", name),
			Environment: inventory.EnvProduction,
			Branch:      "main",
			Runtime:     rt,
		})
		if rng.Float64() > 0.4 {
			svc.Interfaces = append(svc.Interfaces, inventory.Interface{
				Domain:      fmt.Sprintf("%s.staging.acme.io", name),
				Environment: inventory.EnvStaging,
				Branch:      "main",
				Runtime:     rt,
			})
		}
		if rng.Float64() > 0.7 {
			svc.Interfaces = append(svc.Interfaces, inventory.Interface{
				Domain:      fmt.Sprintf("%s.dev.acme.io", name),
				Environment: inventory.EnvDevelopment,
				Branch:      "develop",
			})
		}

		// 1-4 shared infra deps per service.
		depCount := 1 + rng.Intn(4)
		seen := make(map[string]bool)
		for len(svc.Dependencies) < depCount {
			dep := dependencies[rng.Intn(len(dependencies))]
			if seen[dep] {
				continue
			}
			seen[dep] = true
			svc.Dependencies = append(svc.Dependencies, dep)
		}

		services = append(services, svc)
	}

	// =====================================================================
	// Step 3: Persist
	// =====================================================================
	log.Println("[3/3] Persisting…")

	if err := store.SaveServices(ctx, services); err != nil {
		log.Fatalf("  ✗ Save failed: %v", err)
	}

	total, err := store.CountServices(ctx, *orgID)
	if err != nil {
		log.Fatalf("  ✗ Count failed: %v", err)
	}
	log.Printf("  ✓ Saved %d services", total)

	log.Println()
	log.Println("Done. Try:")
	log.Printf("  go run ./cmd/server --db-path %s", *dbPath)
	log.Printf("  curl 'http://localhost:8080/graph?organizationId=%s&focusKind=software&focusId=<id>&hops=2'", *orgID)
}
