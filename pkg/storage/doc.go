// Package storage writes finished archives to disk.
//
// The Saver handles:
//   - Resolving the target directory from configuration
//   - Asking for a file name when "save as" is requested on a terminal
//   - Avoiding clobbering existing files with a " (n)" suffix
//   - Atomic writes using a temporary file and rename
//
// Usage:
//
//	saver, err := storage.NewSaver(&cfg.Archive, log)
//	if err != nil {
//	    return err
//	}
//	path, err := saver.Save(ctx, storage.SaveRequest{
//	    Data:          zipBytes,
//	    SuggestedName: "images.zip",
//	    SaveAs:        true,
//	})
package storage
