package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"expertconnect/internal/slots/generator"
	slotsrepo "expertconnect/internal/slots/repository"
	"expertconnect/pkg/client"
	"expertconnect/pkg/config"
	"expertconnect/pkg/model"
)

const JobName = "seed"

const (
	envSeedExpertIDs = "SEED_EXPERT_IDS"
	// envSeedAPIURL switches the job to seeding through a running service's admin endpoint.
	envSeedAPIURL = "SEED_API_URL"
)

const healthWait = 30 * time.Second

// Seeds free slots for the next SEED_DAYS days at SEED_TIMES for every expert
// id given as an argument or in SEED_EXPERT_IDS. Existing slots keep their state.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	expertIDs := expertIDsFrom(os.Args[1:], os.Getenv(envSeedExpertIDs))
	if len(expertIDs) == 0 {
		cfg.Log.Fatal("No expert ids to seed, pass them as arguments or set " + envSeedExpertIDs)
	}

	var seed seeder
	if baseURL := os.Getenv(envSeedAPIURL); baseURL != "" {
		rc := client.NewReservationClient(strings.TrimRight(baseURL, "/"))
		if err := rc.WaitForHealthy(ctx, healthWait); err != nil {
			cfg.Log.Fatal("Reservation API is not reachable", "base_url", baseURL, "error", err)
		}
		seed = apiSeeder(rc)
		cfg.Log.Info("Seeding through the reservation API", "base_url", baseURL)
	} else {
		seed = storeSeeder(cfg)
		cfg.Log.Info("Seeding the slot store directly", "backend", cfg.SlotStoreBackend)
	}

	today := time.Now().UTC()
	total := 0
	for _, expertID := range expertIDs {
		slots, err := generator.Generate(expertID, today, cfg.SeedDays, cfg.SeedTimes)
		if err != nil {
			cfg.Log.Fatal("Failed to generate slots", "expert_id", expertID, "error", err)
		}
		created, err := seed(ctx, expertID, slots)
		if err != nil {
			cfg.Log.Fatal("Failed to seed slots", "expert_id", expertID, "error", err)
		}
		cfg.Log.Info("Seeded expert slots", "expert_id", expertID, "generated", len(slots), "created", created)
		total += created
	}

	cfg.Log.Info("Seed completed successfully", "experts", len(expertIDs), "created", total)
}

type seeder func(ctx context.Context, expertID string, slots []model.Slot) (int, error)

func storeSeeder(cfg *config.Config) seeder {
	var repo slotsrepo.SlotRepository
	switch cfg.SlotStoreBackend {
	case config.BackendMongo:
		cfg.SetMongo()
		repo = slotsrepo.NewMongoSlotRepository(cfg)
	case config.BackendRedis:
		cfg.SetRedis()
		repo = slotsrepo.NewRedisSlotRepository(cfg.Client.Redis, slotsrepo.WithRedisTimeout(cfg.WriteTimeout))
	case config.BackendPostgres:
		cfg.SetPostgres()
		repo = slotsrepo.NewPostgresSlotRepository(cfg.Client.Postgres, cfg.WriteTimeout)
	default:
		// The memory store lives inside the service process.
		cfg.Log.Fatal("SLOT_STORE_BACKEND=memory can only be seeded through " + envSeedAPIURL)
	}

	return func(ctx context.Context, _ string, slots []model.Slot) (int, error) {
		return repo.Upsert(ctx, slots)
	}
}

func apiSeeder(rc *client.ReservationClient) seeder {
	return func(ctx context.Context, expertID string, slots []model.Slot) (int, error) {
		batch := model.SlotBatch{Slots: make([]model.SlotInput, 0, len(slots))}
		for _, s := range slots {
			batch.Slots = append(batch.Slots, model.SlotInput{Date: s.Date, TimeLabel: s.TimeLabel})
		}

		resp, err := rc.CreateSlots(ctx, expertID, batch)
		if err != nil {
			return 0, err
		}
		if resp.StatusCode != http.StatusCreated {
			return 0, &seedError{status: resp.StatusCode, message: client.GetErrorMessage(resp)}
		}

		var out struct {
			Data struct {
				Created int `json:"created"`
			} `json:"data"`
		}
		if err := resp.DecodeJSON(&out); err != nil {
			return 0, err
		}
		return out.Data.Created, nil
	}
}

type seedError struct {
	status  int
	message string
}

func (e *seedError) Error() string {
	return http.StatusText(e.status) + ": " + e.message
}

func expertIDsFrom(args []string, env string) []string {
	seen := make(map[string]struct{})
	var ids []string
	candidates := append(append([]string{}, args...), strings.Split(env, ",")...)
	for _, raw := range candidates {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
