package service

import "fmt"

func magicLinkEmailTemplate(magicURL, appName string) (subject, body string) {
	subject = fmt.Sprintf("Sign in to %s", appName)
	body = fmt.Sprintf(`Hi,

Click the link below to sign in to %s:

%s

This link expires in 10 minutes and can only be used once.

If you didn't request this, you can safely ignore this email.

The %s Team`, appName, magicURL, appName)
	return subject, body
}

func inviteEmailTemplate(inviteURL, courseTitle, appName string) (subject, body string) {
	subject = fmt.Sprintf("You've been invited to %s", courseTitle)
	body = fmt.Sprintf(`Hi,

You've been invited to join the course "%s" on %s.

Accept your invite here:

%s

The invite is personal and can only be used once.

The %s Team`, courseTitle, appName, inviteURL, appName)
	return subject, body
}

func welcomeEmailTemplate(firstName, appURL, appName string) (subject, body string) {
	greeting := "Hi"
	if firstName != "" {
		greeting = fmt.Sprintf("Hi %s", firstName)
	}
	subject = fmt.Sprintf("Welcome to %s", appName)
	body = fmt.Sprintf(`%s,

Welcome to %s! Your account is ready.

Browse your courses here: %s/home

The %s Team`, greeting, appName, appURL, appName)
	return subject, body
}
