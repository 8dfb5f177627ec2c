// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routetable

import (
	"github.com/erikvoorbraak/knvvl-exam/core/components"
)

// Route names.
const (
	RouteRoot  = "root"
	RouteHome  = "home"
	RouteLogin = "login"
)

// DefaultLoginURL is where the login entry sends the browser when no other URL is configured.
const DefaultLoginURL = "/login"

func view(id components.ViewID) InternalView {
	return InternalView{View: id}
}

// Default returns the route table of the admin front end.
// The login entry redirects to loginURL, or DefaultLoginURL when empty.
func Default(loginURL string) *Table {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}

	home := InternalView{View: components.HomeView, Eager: true}

	return MustNewTable(
		Entry{Path: "/", Name: RouteRoot, Target: home},
		Entry{Path: "/home", Name: RouteHome, Target: home},
		Entry{Path: "/login", Name: RouteLogin, Target: ExternalRedirect{URL: loginURL}},

		Entry{Path: "/texts", Target: view(components.Texts)},
		Entry{Path: "/texts/:textKey", Target: view(components.EditText)},

		Entry{Path: "/questions", Target: view(components.Questions)},
		Entry{Path: "/newquestion", Target: view(components.EditQuestion)},
		Entry{Path: "/questions/:questionId", Target: view(components.EditQuestion)},
		Entry{Path: "/translates/:translatesId", Target: view(components.EditQuestion)},

		Entry{Path: "/topics", Target: view(components.Topics)},

		Entry{Path: "/requirements", Target: view(components.Requirements)},
		Entry{Path: "/newrequirement", Target: view(components.EditRequirement)},
		Entry{Path: "/requirements/:requirementId", Target: view(components.EditRequirement)},

		Entry{Path: "/exams", Target: view(components.Exams)},
		Entry{Path: "/examQuestions/:examId", Target: view(components.TableExam)},
		Entry{Path: "/examQuestion/:examQuestionId", Target: view(components.EditExamQuestion)},
		Entry{Path: "/exam/:examId", Target: view(components.EditExam)},
		Entry{Path: "/newexam", Target: view(components.NewExam)},

		Entry{Path: "/pictures", Target: view(components.Pictures)},
		Entry{Path: "/newpicture", Target: view(components.UploadPicture)},
		Entry{Path: "/pictures/:pictureId", Target: view(components.UploadPicture)},

		Entry{Path: "/users", Target: view(components.Users)},
		Entry{Path: "/newuser", Target: view(components.NewUser)},
		Entry{Path: "/myaccount", Target: view(components.MyAccount)},
	)
}
