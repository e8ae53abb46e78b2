// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package publisher

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/render"
	"github.com/lemlib/artifactlink/internal/section"
)

type bodyUpdate struct {
	repo   github.Repo
	number int
	body   string
}

// fakeClient serves canned pull requests and artifacts and records writes
type fakeClient struct {
	pulls         []*github.PullRequest
	artifacts     []*github.Artifact
	findErr       error
	artifactsErr  error
	updateErr     error
	artifactCalls int
	updates       []bodyUpdate
}

func (f *fakeClient) FindPullRequest(_ context.Context, _ github.Repo, head github.CommitIdentity) (*github.PullRequest, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, pr := range f.pulls {
		if pr.HeadSHA == head.SHA {
			return pr, nil
		}
	}
	return nil, github.ErrPullRequestNotFound
}

func (f *fakeClient) ListWorkflowRunArtifacts(_ context.Context, _ github.Repo, _ int64) ([]*github.Artifact, error) {
	f.artifactCalls++
	return f.artifacts, f.artifactsErr
}

func (f *fakeClient) UpdatePullRequestBody(_ context.Context, repo github.Repo, number int, body string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, bodyUpdate{repo: repo, number: number, body: body})
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		ctx       context.Context
		client    *fakeClient
		publisher *Publisher
		repo      github.Repo
		run       Run
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = github.Repo{Owner: "LemLib", Name: "Gamepad"}
		run = Run{
			ID:                 9001,
			Name:               "Build Template",
			HeadBranch:         "feature/rumble",
			HeadRepositoryName: "Gamepad",
			HeadSHA:            "deadbeef",
		}
		client = &fakeClient{
			pulls: []*github.PullRequest{
				{Number: 41, HeadSHA: "cafebabe"},
				{Number: 42, HeadSHA: "deadbeef", Body: ""},
			},
			artifacts: []*github.Artifact{{ID: 7, Name: "tpl"}},
		}

		renderer, err := render.New(render.Options{})
		Expect(err).NotTo(HaveOccurred())
		publisher = New(client, renderer, "")
	})

	Describe("Scenario: end-to-end update", func() {
		It("writes a download link into the matching pull request", func() {
			result, err := publisher.Publish(ctx, repo, run)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PullRequest).To(Equal(42))
			Expect(result.Artifact.Name).To(Equal("tpl"))

			Expect(client.updates).To(HaveLen(1))
			update := client.updates[0]
			Expect(update.repo).To(Equal(repo))
			Expect(update.number).To(Equal(42))
			Expect(update.body).To(HavePrefix(section.Marker(DefaultPurpose)))
			Expect(update.body).To(ContainSubstring("nightly.link/LemLib/Gamepad/actions/artifacts/7.zip"))
			Expect(update.body).To(ContainSubstring("pros c fetch tpl.zip"))
			Expect(update.body).To(ContainSubstring("<!-- commit-sha: deadbeef -->"))
		})

		It("keeps the human-written part of the description", func() {
			client.pulls[1].Body = "Adds rumble support.\n\nCloses #3" + section.Marker(DefaultPurpose) + "<!-- commit-sha: 0ld5ha -->\nold link"

			_, err := publisher.Publish(ctx, repo, run)
			Expect(err).NotTo(HaveOccurred())

			body := client.updates[0].body
			Expect(body).To(HavePrefix("Adds rumble support.\n\nCloses #3" + section.Marker(DefaultPurpose)))
			Expect(body).NotTo(ContainSubstring("old link"))
			Expect(body).NotTo(ContainSubstring("0ld5ha"))
		})

		It("uses the first artifact when several exist", func() {
			client.artifacts = []*github.Artifact{{ID: 7, Name: "tpl"}, {ID: 8, Name: "docs"}}

			result, err := publisher.Publish(ctx, repo, run)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Artifact.ID).To(Equal(int64(7)))
			Expect(client.updates[0].body).NotTo(ContainSubstring("docs"))
		})

		It("tags the section with a custom purpose", func() {
			renderer, err := render.New(render.Options{})
			Expect(err).NotTo(HaveOccurred())
			publisher = New(client, renderer, "template-download")

			_, err = publisher.Publish(ctx, repo, run)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.updates[0].body).To(ContainSubstring("<!-- bot: template-download -->"))
		})
	})

	Describe("Scenario: already up to date", func() {
		It("skips artifacts and the write", func() {
			client.pulls[1].Body = "Hello" + section.Marker(DefaultPurpose) + "<!-- commit-sha: deadbeef -->\n..."

			_, err := publisher.Publish(ctx, repo, run)
			Expect(err).To(MatchError(ErrAlreadyUpToDate))
			Expect(client.artifactCalls).To(BeZero())
			Expect(client.updates).To(BeEmpty())
			Expect(Message(err, run)).To(Equal("Comment is already up-to-date!"))
		})

		It("updates when the recorded commit differs", func() {
			client.pulls[1].Body = "<!-- commit-sha: abc123 -->"

			_, err := publisher.Publish(ctx, repo, run)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.updates).To(HaveLen(1))
		})
	})

	Describe("Scenario: no matching pull request", func() {
		It("reports not found without touching artifacts", func() {
			run.HeadSHA = "0000000"

			_, err := publisher.Publish(ctx, repo, run)
			Expect(errors.Is(err, ErrPullRequestNotFound)).To(BeTrue())
			Expect(client.artifactCalls).To(BeZero())
			Expect(client.updates).To(BeEmpty())
			Expect(Message(err, run)).To(Equal("No matching pull request found for commit sha of 0000000"))
			Expect(IsUnexpected(err)).To(BeFalse())
		})
	})

	Describe("Scenario: no artifacts", func() {
		It("fails without writing", func() {
			client.artifacts = nil

			_, err := publisher.Publish(ctx, repo, run)
			Expect(err).To(MatchError(ErrNoArtifacts))
			Expect(client.updates).To(BeEmpty())
			Expect(Message(err, run)).To(Equal("No artifacts found, perhaps Build Template was skipped"))
		})
	})

	Describe("Scenario: API failures", func() {
		It("surfaces listing errors as unexpected", func() {
			client.findErr = errors.New("bad credentials")

			_, err := publisher.Publish(ctx, repo, run)
			Expect(err).To(HaveOccurred())
			Expect(IsUnexpected(err)).To(BeTrue())
			Expect(Message(err, run)).To(Equal("Action failed with error bad credentials"))
		})

		It("surfaces artifact errors", func() {
			client.artifactsErr = errors.New("boom")

			_, err := publisher.Publish(ctx, repo, run)
			Expect(err).To(MatchError("boom"))
			Expect(client.updates).To(BeEmpty())
		})

		It("surfaces write errors", func() {
			client.updateErr = errors.New("forbidden")

			result, err := publisher.Publish(ctx, repo, run)
			Expect(err).To(MatchError("forbidden"))
			Expect(result).To(BeNil())
		})
	})

	Describe("Message", func() {
		It("is empty for success", func() {
			Expect(Message(nil, run)).To(BeEmpty())
			Expect(IsUnexpected(nil)).To(BeFalse())
		})
	})
})
