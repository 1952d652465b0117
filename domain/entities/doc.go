// Package entities provides core domain entities for the SDK.
// These are plain value types shared by the ABI layer, the bridge and the
// lifecycle adapter. None of them reference host memory.
package entities
