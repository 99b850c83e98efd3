// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Command entrymock serves the fake entry API for manual runs of fsreg.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/entryapitest"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/services/register"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:8089", "listen address")
	token := pflag.String("token", "", "bearer token required from clients")
	rejectName := pflag.String("reject-validation", "", "data name whose validation returns 422")
	fixtures := pflag.String("fixtures", "", "YAML/JSON file with datasets and samples to serve")
	pflag.Parse()

	api := entryapitest.NewAPI()
	api.Token = *token
	api.RequestLog = true
	if *fixtures != "" {
		l, err := register.LoadStaticLookup(*fixtures)
		if err != nil {
			utils.Errorf("%v", err)
			os.Exit(1)
		}
		api.Datasets = l.Datasets
		api.Samples = l.Samples
	}
	if *rejectName != "" {
		api.RejectValidation = func(dataName string) *entryapitest.Rejection {
			if dataName == *rejectName {
				return &entryapitest.Rejection{
					Status: http.StatusUnprocessableEntity,
					Body:   `{"errors":[{"status":"422","detail":"rejected by entrymock"}]}`,
				}
			}
			return nil
		}
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Errorf("shutdown: %v", err)
		}
	}()

	utils.Infof("entry API listening on http://%s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Errorf("%v", err)
		os.Exit(1)
	}
	utils.Infof("uploads=%d entries=%d", len(api.Uploads()), len(api.Entries()))
}
