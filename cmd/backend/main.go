// Copyright 2026 the pagesnap authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagesnap/internal/app"
	"pagesnap/internal/app/backend"
	"pagesnap/pkg/config"
)

func main() {
	cfg, err := config.LoadBackendConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	bootstrap, err := app.NewBootstrap(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	application := backend.NewApp(bootstrap)

	addr := ":8080"
	if cfg != nil && cfg.Backend.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Backend.Host, cfg.Backend.Port)
	}

	go func() {
		if err := application.Run(addr); err != nil {
			log.Printf("backend exited: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("backend stopped")
}
