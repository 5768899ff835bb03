// Package drm provides the low level pieces of a DRM/KMS hardware
// composer: opening the device, querying driver capabilities and
// exchanging PRIME (dma-buf) file descriptors for device-local GEM
// handles.
//
// The subpackages build on it: mode talks to the KMS object model,
// importer turns allocator buffer handles into scanout framebuffers
// and EGL images, and planner assigns layers to hardware planes.
package drm
