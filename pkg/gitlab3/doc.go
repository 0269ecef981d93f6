// Package gitlab3 is a client for the GitLab REST API v3.
//
// A Client is created with a token, or without one and then authenticated
// with Login:
//
//	client := gitlab3.NewClient("https://gitlab.example.com", token)
//	project, err := client.Project(ctx, "group/name")
//	issues, err := project.Issues(ctx, &gitlab3.ListIssuesOptions{State: "opened"})
//
// Every resource is an Entity holding the JSON attributes returned by
// GitLab, wrapped in a type with accessors for the well-known fields.
// Attributes are changed locally with Set and sent with Save.
//
// Listings are fetched one page at a time until GitLab runs out of items or
// ListOptions.Limit is reached. Find helpers scan a listing linearly: the
// package-level FindOne and FindAll work on slices already fetched, the
// Find methods of the client and of entities fetch the listing first.
//
// Requests run as another user (admin only) with a context from WithSudo,
// or for a single call with the Sudo request option.
package gitlab3
