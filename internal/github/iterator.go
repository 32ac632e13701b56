package github

import "context"

// IssueIterator walks the paginated issues listing as one logical sequence.
// It is forward-only and single-use: callers iterate with Next, read the
// current record with Issue, and check Err once Next returns false.
//
//	it := client.ListIssues("all")
//	for it.Next(ctx) {
//		handle(it.Issue())
//	}
//	if err := it.Err(); err != nil { ... }
type IssueIterator struct {
	client *Client
	state  string

	page int
	buf  []Issue
	idx  int
	last bool

	cur Issue
	err error
}

// Next advances to the next issue, fetching further pages as needed. It
// returns false when the sequence is exhausted or a fetch failed.
func (it *IssueIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for {
		for it.idx < len(it.buf) {
			issue := it.buf[it.idx]
			it.idx++
			if issue.IsPullRequest() {
				// The issues endpoint also returns pull requests.
				continue
			}
			it.cur = issue
			return true
		}
		if it.last {
			return false
		}

		buf, err := it.client.fetchIssuesPage(ctx, it.state, it.page)
		if err != nil {
			it.err = err
			return false
		}
		it.buf = buf
		it.idx = 0
		it.page++
		// A short page means the listing is exhausted.
		if len(buf) < it.client.perPage {
			it.last = true
		}
		if len(buf) == 0 {
			return false
		}
	}
}

// Issue returns the record produced by the last successful call to Next.
func (it *IssueIterator) Issue() Issue {
	return it.cur
}

// Err returns the first fetch error encountered, if any.
func (it *IssueIterator) Err() error {
	return it.err
}
