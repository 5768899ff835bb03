package drm_test

import (
	"fmt"

	drm "github.com/NeowayLabs/drmhwc"
)

func ExampleHasPrimeImport() {
	// This example shows how to test if your graphics card
	// can import dma-buf file descriptors handed over by a buffer
	// allocator. Without it no foreign buffer can be scanned out.

	file, err := drm.OpenCard(0)
	if err != nil {
		fmt.Printf("error: %s", err.Error())
		return
	}
	defer file.Close()
	if !drm.HasPrimeImport(file) {
		fmt.Printf("drm device does not support prime import")
		return
	}
	fmt.Printf("ok")
}
