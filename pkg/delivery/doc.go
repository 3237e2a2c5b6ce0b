// Package delivery puts produced files in front of the user.
//
// A [Resolver] tries two tiers. When a destination directory is configured
// it writes the file there through an [FS] bridge, creating the directory
// if needed. When no directory is configured, or any step of the native
// write fails, the payload is handed to a [Fallback] that offers it
// interactively. Only when both tiers fail does [Resolver.Deliver] return
// an error, a [*DeliveryError] carrying both causes.
//
// Two fallbacks are provided: [DownloadServer] serves each payload once
// over HTTP as an attachment, and [DirFallback] drops it into a downloads
// directory.
package delivery
