// Package extractor turns fetched page content into a company profile by
// prompting a generative model and parsing the JSON object out of its reply.
package extractor
