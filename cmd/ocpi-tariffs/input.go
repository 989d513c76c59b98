package main

import (
	"io"
	"os"
	"time"

	"ocpi-tariffs/internal/calendar"
	"ocpi-tariffs/internal/ocpi"
)

// openCdrSource opens path, or falls back to stdin when path is empty,
// per spec §6's "stdin when -c is omitted" contract.
func openCdrSource(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func loadCdr(path string) (*ocpi.Cdr, error) {
	r, err := openCdrSource(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ocpi.Decode(r)
}

func loadTariff(path string) (*ocpi.Tariff, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ocpi.DecodeTariff(f)
}

func resolveZone(name string) (*time.Location, error) {
	zone, err := calendar.LoadZone(name)
	if err != nil {
		return nil, ocpi.NewError(ocpi.UnknownZone, err.Error())
	}
	return zone, nil
}
