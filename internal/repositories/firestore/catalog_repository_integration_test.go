//go:build integration

package firestore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stayline-supplies/api/internal/domain"
	pconfig "github.com/stayline-supplies/api/internal/platform/config"
	pfirestore "github.com/stayline-supplies/api/internal/platform/firestore"
	"github.com/stayline-supplies/api/internal/repositories"
)

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

func TestCatalogRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}
	ensureDockerDaemon(t)

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	containerID := startFirestoreEmulator(t, port)
	t.Cleanup(func() { stopContainer(containerID) })
	waitForEndpoint(t, endpoint, 30*time.Second)

	cfg := pconfig.FirestoreConfig{
		ProjectID:    "catalog-test",
		EmulatorHost: endpoint,
	}
	provider := pfirestore.NewProvider(cfg)
	t.Cleanup(func() { _ = provider.Close(context.Background()) })

	// Batch limit of 2 forces every migration and cascade onto the
	// multi-batch path.
	repo, err := NewCatalogRepository(provider, nil, WithBatchLimit(2))
	if err != nil {
		t.Fatalf("new catalog repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	category := domain.Category{ID: "linen", Title: "Linen", ImageURL: "https://img/linen.png"}
	if err := repo.CreateCategory(ctx, category); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := repo.CreateCategory(ctx, category); err == nil {
		t.Fatal("expected conflict on duplicate category create")
	} else if !isConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	sub := domain.SubCategory{ID: "bath-towels", Name: "Bath Towels", CreatedAt: createdAt}
	products := []domain.ProductGroup{
		{ID: "classic", Name: "Classic", Variants: []domain.ProductVariant{{Title: "500gsm", Price: 12.5}}},
		{ID: "premium", Name: "Premium", Variants: []domain.ProductVariant{{Title: "700gsm", Price: 19.0}}},
		{ID: "budget", Name: "Budget"},
	}
	if err := repo.CreateSubCategory(ctx, category.ID, sub, products); err != nil {
		t.Fatalf("create subcategory: %v", err)
	}

	// Renaming onto an occupied slug must refuse with a conflict and leave
	// the original subtree untouched.
	occupied := domain.SubCategory{ID: "pool-towels", Name: "Pool Towels", CreatedAt: createdAt}
	if err := repo.CreateSubCategory(ctx, category.ID, occupied, nil); err != nil {
		t.Fatalf("create occupied subcategory: %v", err)
	}
	err = repo.RenameSubCategory(ctx, category.ID, sub.ID, domain.SubCategory{ID: occupied.ID, Name: occupied.Name})
	if !isConflict(err) {
		t.Fatalf("expected conflict renaming onto occupied subcategory slug, got %v", err)
	}
	intact, err := repo.ListProducts(ctx, category.ID, sub.ID)
	if err != nil {
		t.Fatalf("list products after refused rename: %v", err)
	}
	if len(intact) != len(products) {
		t.Fatalf("expected %d products untouched after refused rename, got %d", len(products), len(intact))
	}

	// Same refusal one level up: a category rename onto a held slug.
	blocker := domain.Category{ID: "hospitality-linen", Title: "Hospitality Linen"}
	if err := repo.CreateCategory(ctx, blocker); err != nil {
		t.Fatalf("create blocking category: %v", err)
	}
	err = repo.RenameCategory(ctx, category.ID, blocker)
	if !isConflict(err) {
		t.Fatalf("expected conflict renaming onto occupied category slug, got %v", err)
	}
	if _, err := repo.GetCategory(ctx, category.ID); err != nil {
		t.Fatalf("expected original category untouched after refused rename: %v", err)
	}
	if err := repo.DeleteCategory(ctx, blocker.ID); err != nil {
		t.Fatalf("delete blocking category: %v", err)
	}

	// Rename the subcategory and verify the products moved and the creation
	// timestamp survived.
	renamed := domain.SubCategory{ID: "bath-linen", Name: "Bath Linen"}
	if err := repo.RenameSubCategory(ctx, category.ID, sub.ID, renamed); err != nil {
		t.Fatalf("rename subcategory: %v", err)
	}
	got, err := repo.GetSubCategory(ctx, category.ID, renamed.ID)
	if err != nil {
		t.Fatalf("get renamed subcategory: %v", err)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected createdAt %v preserved, got %v", createdAt, got.CreatedAt)
	}
	if _, err := repo.GetSubCategory(ctx, category.ID, sub.ID); err == nil {
		t.Fatal("expected old subcategory slug to be gone")
	}
	moved, err := repo.ListProducts(ctx, category.ID, renamed.ID)
	if err != nil {
		t.Fatalf("list products after rename: %v", err)
	}
	if len(moved) != len(products) {
		t.Fatalf("expected %d products after rename, got %d", len(products), len(moved))
	}

	// Rename the category; the whole subtree has to follow.
	movedCat := domain.Category{ID: "hospitality-linen", Title: "Hospitality Linen", ImageURL: category.ImageURL}
	if err := repo.RenameCategory(ctx, category.ID, movedCat); err != nil {
		t.Fatalf("rename category: %v", err)
	}
	if _, err := repo.GetCategory(ctx, category.ID); err == nil {
		t.Fatal("expected old category slug to be gone")
	}
	moved, err = repo.ListProducts(ctx, movedCat.ID, renamed.ID)
	if err != nil {
		t.Fatalf("list products after category rename: %v", err)
	}
	if len(moved) != len(products) {
		t.Fatalf("expected %d products after category rename, got %d", len(products), len(moved))
	}

	flat, err := repo.ListFlatProducts(ctx)
	if err != nil {
		t.Fatalf("list flat products: %v", err)
	}
	if len(flat) != len(products) {
		t.Fatalf("expected %d flat rows, got %d", len(products), len(flat))
	}
	if flat[0].CategoryID != movedCat.ID || flat[0].SubCategoryID != renamed.ID {
		t.Fatalf("unexpected flat row ancestry: %+v", flat[0])
	}

	// Cascade delete drains products and subcategories before the category
	// document itself.
	if err := repo.DeleteCategory(ctx, movedCat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, err := repo.GetCategory(ctx, movedCat.ID); err == nil {
		t.Fatal("expected category to be deleted")
	}
	if err := repo.DeleteCategory(ctx, movedCat.ID); err == nil {
		t.Fatal("expected not found on second delete")
	} else if !isNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func startFirestoreEmulator(t *testing.T, port int) string {
	t.Helper()
	args := []string{
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	}

	cmd := exec.Command("docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func ensureDockerDaemon(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Fatalf("docker daemon not available: %v", err)
	}
}

func stopContainer(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = exec.CommandContext(ctx, "docker", "stop", id).Run()
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("firestore emulator at %s did not become ready within %s", endpoint, timeout)
}
