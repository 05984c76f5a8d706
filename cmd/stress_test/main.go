package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stockroom/internal/adapter/handler"
	"github.com/rl1809/stockroom/internal/core/domain"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC server address")
	totalRequests := flag.Int("n", 50, "concurrent edits of the same version")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *addr, err)
	}
	defer conn.Close()
	client := handler.NewInventoryClient(conn)

	created, err := client.CreateProduct(ctx, &handler.CreateProductRequest{Product: domain.Product{
		Name:     "stress-widget",
		Price:    100,
		Count:    1,
		Shelf:    "S1",
		Category: "stress",
	}})
	if err != nil {
		log.Fatalf("failed to create product: %v", err)
	}
	defer client.DeleteProduct(context.Background(), &handler.DeleteProductRequest{ID: created.ID})

	base, err := client.GetProduct(ctx, &handler.GetProductRequest{ID: created.ID})
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}

	var successCount, conflictCount, otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			p := base.Product
			p.Count = int64(n + 2)
			_, err := client.UpdateProduct(ctx, &handler.UpdateProductRequest{ID: p.ID, Product: p})
			switch status.Code(err) {
			case codes.OK:
				successCount.Add(1)
			case codes.Aborted:
				conflictCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("edit %d: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	conflicts := conflictCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Product ID:       %d\n", created.ID)
	fmt.Printf("Base Version:     %d\n", base.Product.Version)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Conflicts:        %d\n", conflicts)
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == 1 && conflicts == int32(*totalRequests-1) {
		fmt.Printf("PASS: Exactly 1 edit succeeded, %d conflicted\n", conflicts)
	} else {
		fmt.Printf("FAIL: Expected 1 success/%d conflicts, got %d/%d\n",
			*totalRequests-1, success, conflicts)
	}

	final, err := client.GetProduct(ctx, &handler.GetProductRequest{ID: created.ID})
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}
	fmt.Printf("Final Version:    %d\n", final.Product.Version)

	if final.Product.Version == base.Product.Version+1 {
		fmt.Println("PASS: Version advanced exactly once")
	} else {
		fmt.Printf("FAIL: Expected version %d, got %d\n", base.Product.Version+1, final.Product.Version)
	}
}
