package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	TemplatesLocalDir = "templates"

	TemplateLayout  = "layout.html"
	TemplateIndex   = "index.html"
	TemplatePost    = "post.html"
	TemplatePage    = "page.html"
	TemplateLogin   = "login.html"
	TemplateEditor  = "editor.html"
	TemplatePreview = "preview.html"
)
