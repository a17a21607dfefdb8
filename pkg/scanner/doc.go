// Package scanner discovers the images of a web page.
//
// A scan loads the page, enumerates its <img> elements in document order,
// resolves each source against the page (honouring <base href>) and probes
// every image concurrently for its intrinsic size:
//
//	s := scanner.New(cfg, client, log)
//	resp, err := s.Scan(ctx, scanner.Request{
//		Action:      scanner.ActionGetImages,
//		PageURL:     "https://example.com/gallery",
//		MeasureSize: true,
//	})
//
// A page that cannot be loaded fails the whole scan. A single image that
// cannot be probed does not: it is reported in Response.Failures and kept
// with whatever was learned about it.
package scanner
